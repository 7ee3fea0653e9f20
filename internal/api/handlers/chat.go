package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Azhc/chat-backend/internal/api/middleware"
	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/Azhc/chat-backend/internal/response"
	"github.com/Azhc/chat-backend/internal/upstream"
	"github.com/Azhc/chat-backend/pkg/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler proxies chat traffic to the upstream chat service: the
// streaming chat call itself plus the suggestion and feedback endpoints.
type ChatHandler struct {
	relay   *upstream.Relay
	backend *upstream.Client
}

func NewChatHandler(relay *upstream.Relay, backend *upstream.Client) *ChatHandler {
	return &ChatHandler{relay: relay, backend: backend}
}

// Chat forwards a chat request upstream in streaming mode and relays the
// event stream back chunk by chunk.
// POST /chat-messages/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RenderError(c, errs.Validation(err.Error()))
		return
	}

	user, ok := middleware.GetUserID(c)
	if !ok {
		response.RenderError(c, errs.Auth(errs.TokenMissing))
		return
	}

	if req.Inputs == nil {
		req.Inputs = map[string]any{}
	}
	payload := map[string]any{
		"query":           req.Query,
		"inputs":          req.Inputs,
		"conversation_id": req.ConversationID,
		"user":            user,
		"response_mode":   "streaming",
	}

	frames := h.relay.Open(c.Request.Context(), upstream.Call{
		Method: http.MethodPost,
		Path:   "/chat-messages",
		Body:   payload,
	})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		frame, ok := <-frames
		if !ok {
			return false
		}
		_, _ = w.Write(frame)
		return true
	})
}

// Suggested returns follow-up question suggestions for a message.
// GET /chat-messages/:message_id/suggested
func (h *ChatHandler) Suggested(c *gin.Context) {
	messageID := c.Param("message_id")
	if _, err := uuid.Parse(messageID); err != nil {
		response.RenderError(c, errs.Validation("消息ID格式错误"))
		return
	}

	user, _ := middleware.GetUserID(c)
	params := url.Values{}
	params.Set("user", user)

	result := h.backend.Get(c.Request.Context(), "/messages/"+messageID+"/suggested", params, nil)
	if err := checkPassthrough(result); err != nil {
		response.RenderError(c, err)
		return
	}

	var data any
	if err := result.Decode(&data); err != nil {
		response.RenderError(c, errs.ServiceWrap("请求后端服务失败: 错误", err))
		return
	}
	response.Success(c, data)
}

// Feedback records a thumbs up/down (or retracts one) for a message.
// POST /chat-messages/:message_id/feedbacks
func (h *ChatHandler) Feedback(c *gin.Context) {
	messageID := c.Param("message_id")
	if _, err := uuid.Parse(messageID); err != nil {
		response.RenderError(c, errs.Validation("消息ID格式错误"))
		return
	}

	var req types.ChatFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RenderError(c, errs.Validation(err.Error()))
		return
	}

	user, _ := middleware.GetUserID(c)
	payload := map[string]any{"user": user}
	if req.Rating != nil {
		payload["rating"] = *req.Rating
	}
	if req.Content != nil {
		payload["content"] = *req.Content
	}

	result := h.backend.PostJSON(c.Request.Context(), "/messages/"+messageID+"/feedbacks", payload, nil)
	if err := checkPassthrough(result); err != nil {
		response.RenderError(c, err)
		return
	}

	var data any
	if err := result.Decode(&data); err != nil {
		response.RenderError(c, errs.ServiceWrap("请求后端服务失败: 错误", err))
		return
	}
	response.Success(c, data)
}

// checkPassthrough maps an upstream result to the gateway's error
// taxonomy: transport failures become the generic unavailable message,
// business rejections carry a truncated upstream reason.
func checkPassthrough(result upstream.Result) error {
	if result.Err != nil {
		return errs.ServiceWrap("服务暂时不可用，请稍后重试", result.Err)
	}
	if !result.Success {
		return errs.Service(fmt.Sprintf("请求后端服务失败: %s", result.ErrorMessage()))
	}
	return nil
}
