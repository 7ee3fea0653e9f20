package handlers

import (
	"net/url"
	"strconv"

	"github.com/Azhc/chat-backend/internal/api/middleware"
	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/Azhc/chat-backend/internal/response"
	"github.com/Azhc/chat-backend/internal/upstream"
	"github.com/Azhc/chat-backend/pkg/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// validSortFields are the sort orders the upstream conversation listing
// accepts.
var validSortFields = map[string]bool{
	"created_at":  true,
	"-created_at": true,
	"updated_at":  true,
	"-updated_at": true,
}

// ConversationHandler passes conversation CRUD through to the upstream
// chat service with the resolved identity attached.
type ConversationHandler struct {
	backend *upstream.Client
}

func NewConversationHandler(backend *upstream.Client) *ConversationHandler {
	return &ConversationHandler{backend: backend}
}

// List returns the user's conversations, newest first by default.
// GET /conversations/list?last_id=&limit=&sort_by=
func (h *ConversationHandler) List(c *gin.Context) {
	user, _ := middleware.GetUserID(c)

	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			response.RenderError(c, errs.Validation("limit必须是1-100之间的整数"))
			return
		}
		limit = n
	}

	sortBy := c.DefaultQuery("sort_by", "-updated_at")
	if !validSortFields[sortBy] {
		response.RenderError(c, errs.Validation("无效的排序字段"))
		return
	}

	params := url.Values{}
	params.Set("user", user)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort_by", sortBy)
	if lastID := c.Query("last_id"); lastID != "" {
		params.Set("last_id", lastID)
	}

	result := h.backend.Get(c.Request.Context(), "/conversations", params, nil)
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

// Rename sets or auto-generates a conversation name.
// POST /conversations/:conversation_id/name
func (h *ConversationHandler) Rename(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	if _, err := uuid.Parse(conversationID); err != nil {
		response.RenderError(c, errs.Validation("会话ID格式错误"))
		return
	}

	var req types.ConversationRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RenderError(c, errs.Validation(err.Error()))
		return
	}

	user, _ := middleware.GetUserID(c)
	payload := map[string]any{
		"user":          user,
		"auto_generate": req.AutoGenerate,
	}
	if req.Name != nil {
		payload["name"] = *req.Name
	}

	result := h.backend.PostJSON(c.Request.Context(), "/conversations/"+conversationID+"/name", payload, nil)
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

// Messages returns the message history of a conversation.
// GET /conversations/:conversation_id/messages?first_id=&limit=
func (h *ConversationHandler) Messages(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	if _, err := uuid.Parse(conversationID); err != nil {
		response.RenderError(c, errs.Validation("会话ID格式错误"))
		return
	}

	user, _ := middleware.GetUserID(c)
	params := url.Values{}
	params.Set("user", user)
	params.Set("conversation_id", conversationID)
	if firstID := c.Query("first_id"); firstID != "" {
		params.Set("first_id", firstID)
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err != nil || n <= 0 || n > 100 {
			response.RenderError(c, errs.Validation("limit必须是1-100之间的整数"))
			return
		}
		params.Set("limit", limit)
	}

	result := h.backend.Get(c.Request.Context(), "/messages", params, nil)
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

// Delete removes a conversation.
// DELETE /conversations/:conversation_id
func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	if _, err := uuid.Parse(conversationID); err != nil {
		response.RenderError(c, errs.Validation("会话ID格式错误"))
		return
	}

	user, _ := middleware.GetUserID(c)
	payload := map[string]any{"user": user}

	result := h.backend.DeleteJSON(c.Request.Context(), "/conversations/"+conversationID, payload, nil)
	if err := checkPassthrough(result); err != nil {
		response.RenderError(c, err)
		return
	}

	// Upstream replies 204 with an empty body on delete.
	if len(result.Data) == 0 {
		response.Success(c, nil)
		return
	}
	var data any
	if err := result.Decode(&data); err != nil {
		response.RenderError(c, errs.ServiceWrap("请求后端服务失败: 错误", err))
		return
	}
	response.Success(c, data)
}
