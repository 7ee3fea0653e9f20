package auth

import (
	"context"
	"net/url"
	"time"

	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/Azhc/chat-backend/internal/upstream"
	"github.com/rs/zerolog/log"
)

// userCenterRealm scopes user-directory queries and is fixed for this
// deployment.
const userCenterRealm = "SCPG"

// Session is the outcome of a successful login exchange.
type Session struct {
	Token string `json:"token"`
	// ExpiresIn is the remaining validity in whole seconds.
	ExpiresIn int64 `json:"expires_in"`
	// Expiration is the absolute expiry as RFC 3339.
	Expiration string `json:"expiration"`
}

// Issuer exchanges a WorkWechat authorization code for upstream identity
// and mints a gateway session token. Each step of the exchange
// short-circuits with a ServiceError carrying a short client-safe reason;
// upstream bodies are logged, never forwarded.
type Issuer struct {
	codec      *TokenCodec
	wechat     *upstream.Client
	userCenter *upstream.Client
	appID      string
	appSecret  string
	ttl        time.Duration
}

// NewIssuer builds an issuer. wechat talks to the WorkWechat provider and
// userCenter to the user-directory service.
func NewIssuer(codec *TokenCodec, wechat, userCenter *upstream.Client, appID, appSecret string, ttl time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		wechat:     wechat,
		userCenter: userCenter,
		appID:      appID,
		appSecret:  appSecret,
		ttl:        ttl,
	}
}

// IssueByCode runs the full exchange: service access token, user key by
// authorization code, canonical account lookup, session mint.
func (i *Issuer) IssueByCode(ctx context.Context, code string) (*Session, error) {
	accessToken, err := i.fetchAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ldapID, err := i.fetchUserKey(ctx, accessToken, code)
	if err != nil {
		return nil, err
	}

	userID, err := i.lookupAccount(ctx, ldapID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := i.codec.Encode(userID, i.ttl)
	if err != nil {
		return nil, errs.ServiceWrap("系统发生意外错误", err)
	}

	return &Session{
		Token:      token,
		ExpiresIn:  int64(i.ttl.Seconds()),
		Expiration: expiresAt.Format(time.RFC3339),
	}, nil
}

// fetchAccessToken obtains a service-level access credential using the
// gateway's own client credentials, not the end user's.
func (i *Issuer) fetchAccessToken(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("appId", i.appID)
	params.Set("secret", i.appSecret)

	result := i.wechat.Get(ctx, "/token/get-token", params, nil)
	if result.Err != nil || !result.Success {
		return "", errs.ServiceWrap("请求企微token接口失败", result.Err)
	}

	var body struct {
		Success bool   `json:"success"`
		Errmsg  string `json:"errmsg"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := result.Decode(&body); err != nil {
		return "", errs.ServiceWrap("请求企微token接口失败", err)
	}
	if !body.Success {
		msg := body.Errmsg
		if msg == "" {
			msg = "企微令牌获取失败"
		}
		return "", errs.Service(msg)
	}
	return body.Data.Token, nil
}

// fetchUserKey exchanges the access token plus the user's authorization
// code for the provider's LDAP-style user key.
func (i *Issuer) fetchUserKey(ctx context.Context, accessToken, code string) (string, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("code", code)

	result := i.wechat.Get(ctx, "/cgi-bin/auth/getuserinfo", params, nil)
	if result.Err != nil || !result.Success {
		return "", errs.ServiceWrap("请求企微用户接口失败", result.Err)
	}

	var body struct {
		Errcode int    `json:"errcode"`
		Errmsg  string `json:"errmsg"`
		UserID  string `json:"userid"`
	}
	if err := result.Decode(&body); err != nil {
		return "", errs.ServiceWrap("请求企微用户接口失败", err)
	}
	if body.Errcode != 0 {
		msg := body.Errmsg
		if msg == "" {
			msg = "请求企微用户接口失败"
		}
		log.Warn().Int("errcode", body.Errcode).Str("errmsg", body.Errmsg).Msg("workwechat rejected authorization code")
		return "", errs.Service(msg)
	}
	if body.UserID == "" {
		return "", errs.Service("获取企微用户信息失败")
	}
	return body.UserID, nil
}

// lookupAccount maps the LDAP id to the canonical account name via the
// user-directory service. Exactly one record must match.
func (i *Issuer) lookupAccount(ctx context.Context, ldapID string) (string, error) {
	params := url.Values{}
	params.Set("queryType", "query:ext-attr")
	params.Set("key", "LDAP_ID")
	params.Set("value", ldapID)
	params.Set("pageNum", "1")
	params.Set("pageSize", "1")

	headers := map[string]string{
		"realm":       userCenterRealm,
		"targetAppId": "scpg-auth-service",
	}

	result := i.userCenter.Get(ctx, "/"+userCenterRealm+"/users", params, headers)
	if result.Err != nil || !result.Success {
		log.Warn().Err(result.Err).Int("status", result.StatusCode).Msg("user center lookup failed")
		return "", errs.ServiceWrap("用户中心接口请求失败", result.Err)
	}

	var body struct {
		Data []struct {
			UserName string `json:"userName"`
		} `json:"data"`
	}
	if err := result.Decode(&body); err != nil {
		return "", errs.ServiceWrap("用户中心接口请求失败", err)
	}
	if len(body.Data) != 1 {
		return "", errs.Service("用户不存在")
	}
	if body.Data[0].UserName == "" {
		return "", errs.Service("用户ID不存在")
	}
	return body.Data[0].UserName, nil
}
