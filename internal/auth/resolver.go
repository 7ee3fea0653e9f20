package auth

import (
	"context"
	"strings"

	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/Azhc/chat-backend/internal/upstream"
)

// X-Auth-Type values. WorkWechat tokens carry their identity in local
// claims; everything else is resolved through the remote identity lookup.
const (
	AuthTypeHeader     = "X-Auth-Type"
	AuthTypeWorkWechat = "WorkWechat"
)

// Resolver maps a raw bearer token to a trusted user identity using one of
// two mutually exclusive strategies, chosen per request by the X-Auth-Type
// header. The choice is static for the request; strategies are never mixed
// or retried.
type Resolver struct {
	codec      *TokenCodec
	lookup     *upstream.Client
	lookupPath string
}

// NewResolver builds a resolver. lookup may be nil when only the local
// strategy is deployed; remote resolution then fails as unavailable.
func NewResolver(codec *TokenCodec, lookup *upstream.Client, lookupPath string) *Resolver {
	return &Resolver{codec: codec, lookup: lookup, lookupPath: lookupPath}
}

// StripBearer removes an optional "Bearer " scheme prefix from an
// Authorization header value. Bare tokens pass through unchanged.
func StripBearer(header string) string {
	header = strings.TrimSpace(header)
	if strings.HasPrefix(header, "Bearer") {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return header
}

// Resolve returns the identity asserted by token. Failures are always
// *errs.AuthError; the kind distinguishes bad credentials from an
// unreachable identity provider.
func (r *Resolver) Resolve(ctx context.Context, token, authType string) (string, error) {
	if token == "" {
		return "", errs.Auth(errs.TokenMissing)
	}
	if authType == AuthTypeWorkWechat {
		return r.codec.Decode(token)
	}
	return r.resolveRemote(ctx, token)
}

// resolveRemote forwards the raw token as a bearer credential to the
// identity endpoint. Transport failure is UpstreamUnavailable; a business
// rejection or a missing username is IdentityUnresolvable.
func (r *Resolver) resolveRemote(ctx context.Context, token string) (string, error) {
	if r.lookup == nil {
		return "", errs.Auth(errs.UpstreamUnavailable)
	}

	result := r.lookup.Get(ctx, r.lookupPath, nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if result.Err != nil {
		return "", errs.Auth(errs.UpstreamUnavailable)
	}
	if !result.Success {
		return "", errs.Auth(errs.IdentityUnresolvable)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := result.Decode(&body); err != nil {
		return "", errs.Auth(errs.IdentityUnresolvable)
	}
	if !body.Success || body.Data.Username == "" {
		return "", errs.Auth(errs.IdentityUnresolvable)
	}
	return body.Data.Username, nil
}
