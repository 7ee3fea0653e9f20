package handlers

import (
	"github.com/Azhc/chat-backend/internal/auth"
	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/Azhc/chat-backend/internal/response"
	"github.com/Azhc/chat-backend/pkg/types"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	issuer *auth.Issuer
}

func NewAuthHandler(issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// GetUserByCode exchanges a WorkWechat authorization code for a gateway
// session token.
// GET /auth/getUserByCode?code=<code>
func (h *AuthHandler) GetUserByCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.RenderError(c, errs.Validation("缺少授权码"))
		return
	}

	session, err := h.issuer.IssueByCode(c.Request.Context(), code)
	if err != nil {
		response.RenderError(c, err)
		return
	}

	response.Success(c, types.LoginResult{
		Token:      session.Token,
		ExpiresIn:  session.ExpiresIn,
		Expiration: session.Expiration,
	})
}
