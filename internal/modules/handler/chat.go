package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(s service.ChatService) *ChatHandler {
	return &ChatHandler{svc: s}
}

type CreateChatSessionReq struct {
	PersonaID   uint    `json:"persona_id" binding:"required,min=1,max=5" example:"2"`
	SessionName *string `json:"session_name" example:"첫 상담"`
}

type SessionIDReq struct {
	SessionID string `uri:"session_id" binding:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
}

type SendMessageReq struct {
	Content string `json:"content" binding:"required" example:"요즘 너무 힘들어"`
}

type ListChatMessagesReq struct {
	Limit  int    `form:"limit,default=50" json:"limit" binding:"min=1,max=200" example:"50"`
	Cursor string `form:"cursor" json:"cursor"`
}

type GreetingResp struct {
	Greeting string `json:"greeting"`
}

func bindSessionID(c *gin.Context) (uuid.UUID, bool) {
	req := SessionIDReq{}
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return uuid.Nil, false
	}
	return id, true
}

// CreateSession godoc
//
//	@Summary		Create chat session
//	@Description	Start a counseling session with one persona
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateChatSessionReq	true	"CreateSession payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.ChatSession}
//	@Failure		404	{object}	serializer.Response	"Persona not found or inactive"
//	@Router			/sessions [post]
func (h *ChatHandler) CreateSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	req := CreateChatSessionReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	sess, err := h.svc.CreateSession(c.Request.Context(), user.ID, service.CreateSessionInput{
		PersonaID:   req.PersonaID,
		SessionName: req.SessionName,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: sess})
}

// ListSessions godoc
//
//	@Summary		List chat sessions
//	@Description	The caller's sessions, most recently active first
//	@Tags			chat
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.ChatSession}
//	@Router			/sessions [get]
func (h *ChatHandler) ListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := h.svc.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// GetSession godoc
//
//	@Summary		Get chat session
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.ChatSession}
//	@Router			/sessions/{session_id} [get]
func (h *ChatHandler) GetSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := bindSessionID(c)
	if !ok {
		return
	}
	sess, err := h.svc.GetSession(c.Request.Context(), user.ID, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: sess})
}

// DeleteSession godoc
//
//	@Summary		Delete chat session
//	@Description	Delete a session and all of its messages
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/sessions/{session_id} [delete]
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := bindSessionID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSession(c.Request.Context(), user.ID, id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

// GetMessages godoc
//
//	@Summary		List chat messages
//	@Description	Messages of a session in chronological order, cursor paginated
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Param			limit		query	integer	false	"Page size, default 50. Max 200."
//	@Param			cursor		query	string	false	"Cursor from the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListMessagesOutput}
//	@Router			/sessions/{session_id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := bindSessionID(c)
	if !ok {
		return
	}
	req := ListChatMessagesReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.ListMessages(c.Request.Context(), user.ID, service.ListMessagesInput{
		SessionID: id,
		Limit:     req.Limit,
		Cursor:    req.Cursor,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// SendMessage godoc
//
//	@Summary		Send chat message
//	@Description	Store the user's message and the persona's reply. Model failures still store the turn with a canned reply.
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path	string					true	"Session ID"	format(uuid)
//	@Param			payload		body	handler.SendMessageReq	true	"Message payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.SendMessageOutput}
//	@Router			/sessions/{session_id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := bindSessionID(c)
	if !ok {
		return
	}
	req := SendMessageReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.SendMessage(c.Request.Context(), user.ID, id, req.Content)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// GetGreeting godoc
//
//	@Summary		Personalized greeting
//	@Description	Opening line grounded on the caller's latest analysis. Empty when there is no analysis.
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=handler.GreetingResp}
//	@Router			/sessions/{session_id}/personalized-greeting [get]
func (h *ChatHandler) GetGreeting(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := bindSessionID(c)
	if !ok {
		return
	}
	g, err := h.svc.Greeting(c.Request.Context(), user.ID, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: GreetingResp{Greeting: g}})
}

// GetTokenCounts godoc
//
//	@Summary		Get token counts for session
//	@Description	Total token count of the stored messages and summary of a session
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.TokenCountsOutput}
//	@Router			/sessions/{session_id}/token_counts [get]
func (h *ChatHandler) GetTokenCounts(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := bindSessionID(c)
	if !ok {
		return
	}
	out, err := h.svc.TokenCounts(c.Request.Context(), user.ID, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}
