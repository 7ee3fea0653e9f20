package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azhc/chat-backend/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Success bool   `json:"success"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *auth.TokenCodec, *atomic.Int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := auth.NewTokenCodec("test-secret", "HS256")
	require.NoError(t, err)
	resolver := auth.NewResolver(codec, nil, "")

	var handlerCalls atomic.Int64
	router := gin.New()
	protected := router.Group("/protected")
	protected.Use(AuthGate(resolver))
	protected.GET("/ping", func(c *gin.Context) {
		handlerCalls.Add(1)
		userID, ok := GetUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": userID})
	})
	return router, codec, &handlerCalls
}

func doRequest(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthGate_MissingHeaderNeverReachesHandler(t *testing.T) {
	router, _, handlerCalls := newTestRouter(t)

	w := doRequest(router, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, int64(0), handlerCalls.Load())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, 401, env.Code)
	require.False(t, env.Success)
}

func TestAuthGate_ValidTokenReachesHandler(t *testing.T) {
	router, codec, handlerCalls := newTestRouter(t)

	token, _, err := codec.Encode("c-alice01", 15*time.Minute)
	require.NoError(t, err)

	w := doRequest(router, map[string]string{
		"Authorization": "Bearer " + token,
		"X-Auth-Type":   auth.AuthTypeWorkWechat,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(1), handlerCalls.Load())
	require.Contains(t, w.Body.String(), "c-alice01")
}

func TestAuthGate_BareTokenWithoutScheme(t *testing.T) {
	router, codec, handlerCalls := newTestRouter(t)

	token, _, err := codec.Encode("c-alice01", 15*time.Minute)
	require.NoError(t, err)

	w := doRequest(router, map[string]string{
		"Authorization": token,
		"X-Auth-Type":   auth.AuthTypeWorkWechat,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(1), handlerCalls.Load())
}

func TestAuthGate_ExpiredToken(t *testing.T) {
	router, codec, handlerCalls := newTestRouter(t)

	token, _, err := codec.Encode("c-alice01", -time.Minute)
	require.NoError(t, err)

	w := doRequest(router, map[string]string{
		"Authorization": "Bearer " + token,
		"X-Auth-Type":   auth.AuthTypeWorkWechat,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, int64(0), handlerCalls.Load())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "用户登陆已失效", env.Msg)
}

func TestAuthGate_SchemeOnlyHeader(t *testing.T) {
	router, _, handlerCalls := newTestRouter(t)

	w := doRequest(router, map[string]string{
		"Authorization": "Bearer",
		"X-Auth-Type":   auth.AuthTypeWorkWechat,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, int64(0), handlerCalls.Load())
}
