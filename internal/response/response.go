// Package response renders the gateway's unified JSON envelope:
// {code, msg, data?, success, time}. Every application-level outcome is
// HTTP 200 except unauthorized, which is HTTP 401. Not-found is an
// envelope code over HTTP 200 on purpose; downstream clients key on the
// envelope code, not the transport status.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Envelope codes.
const (
	CodeSuccess      = 200
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeError        = 500
	CodeWarn         = 601
)

// Envelope is the unified response body for all non-streaming endpoints.
type Envelope struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Data    any    `json:"data,omitempty"`
	Success bool   `json:"success"`
	Time    string `json:"time"`
}

func render(c *gin.Context, httpStatus, code int, msg string, success bool, data any) {
	c.JSON(httpStatus, Envelope{
		Code:    code,
		Msg:     msg,
		Data:    data,
		Success: success,
		Time:    time.Now().Format(time.RFC3339),
	})
}

// Success writes a success envelope with data.
func Success(c *gin.Context, data any) {
	render(c, http.StatusOK, CodeSuccess, "操作成功", true, data)
}

// SuccessMsg writes a success envelope with a custom message.
func SuccessMsg(c *gin.Context, msg string, data any) {
	render(c, http.StatusOK, CodeSuccess, msg, true, data)
}

// Failure writes a warn envelope (business-level rejection).
func Failure(c *gin.Context, msg string) {
	render(c, http.StatusOK, CodeWarn, msg, false, nil)
}

// Error writes a service-error envelope.
func Error(c *gin.Context, msg string) {
	render(c, http.StatusOK, CodeError, msg, false, nil)
}

// BadRequest writes a validation-error envelope.
func BadRequest(c *gin.Context, msg string) {
	render(c, http.StatusOK, CodeBadRequest, msg, false, nil)
}

// NotFound writes a not-found envelope. HTTP status stays 200.
func NotFound(c *gin.Context, msg string) {
	render(c, http.StatusOK, CodeNotFound, msg, false, nil)
}

// Unauthorized writes an unauthorized envelope with HTTP 401.
func Unauthorized(c *gin.Context, msg string) {
	render(c, http.StatusUnauthorized, CodeUnauthorized, msg, false, nil)
}

// RenderError classifies err into one of the envelope shapes. This is the
// single boundary between the typed error taxonomy and the wire format.
func RenderError(c *gin.Context, err error) {
	var authErr *errs.AuthError
	if errors.As(err, &authErr) {
		Unauthorized(c, authErr.Msg)
		return
	}

	var valErr *errs.ValidationError
	if errors.As(err, &valErr) {
		BadRequest(c, valErr.Msg)
		return
	}

	var svcErr *errs.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Cause != nil {
			log.Error().Err(svcErr.Cause).Str("path", c.FullPath()).Msg(svcErr.Msg)
		}
		Error(c, svcErr.Msg)
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("unclassified handler error")
	Error(c, "系统发生意外错误")
}

// Recovery catches panics anywhere below a handler and renders the generic
// error envelope instead of a raw 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.FullPath()).Msg("recovered panic")
		Error(c, "系统发生意外错误")
		c.Abort()
	})
}
