package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/dtos"
	"github.com/preetsinghmakkar/mentorly/internal/middlewares"
	"github.com/preetsinghmakkar/mentorly/internal/services"
)

type MentorSessionHandler struct {
	service *services.MentorSessionService
}

func NewMentorSessionHandler(service *services.MentorSessionService) *MentorSessionHandler {
	return &MentorSessionHandler{service: service}
}

// caller extracts the authenticated user and the :id path parameter.
func caller(c *gin.Context, withSession bool) (userID, sessionID uuid.UUID, ok bool) {
	userID, ok = middlewares.GetUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dtos.ErrorResponse{
			Error: "not authenticated",
			Code:  CodeUnauthenticated,
		})
		return uuid.Nil, uuid.Nil, false
	}
	if !withSession {
		return userID, uuid.Nil, true
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid session id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

// POST /api/sessions
func (h *MentorSessionHandler) Book(c *gin.Context) {
	studentID, _, ok := caller(c, false)
	if !ok {
		return
	}

	var req dtos.BookSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	session, err := h.service.Book(c.Request.Context(), studentID, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewSessionResponse(session))
}

// GET /api/sessions/student
func (h *MentorSessionHandler) ListForStudent(c *gin.Context) {
	userID, _, ok := caller(c, false)
	if !ok {
		return
	}
	buckets, err := h.service.ListForStudent(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSessionListResponse(buckets))
}

// GET /api/sessions/reviewer
func (h *MentorSessionHandler) ListForReviewer(c *gin.Context) {
	userID, _, ok := caller(c, false)
	if !ok {
		return
	}
	buckets, err := h.service.ListForReviewer(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSessionListResponse(buckets))
}

// GET /api/sessions/:id
func (h *MentorSessionHandler) Get(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	view, err := h.service.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSessionViewResponse(view))
}

// POST /api/sessions/:id/accept
func (h *MentorSessionHandler) Accept(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	session, err := h.service.Accept(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSessionResponse(session))
}

// POST /api/sessions/:id/reject
func (h *MentorSessionHandler) Reject(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	session, err := h.service.Reject(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSessionResponse(session))
}

// POST /api/sessions/:id/end-chat
func (h *MentorSessionHandler) EndChat(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	session, err := h.service.EndChat(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSessionResponse(session))
}

// GET /api/sessions/:id/messages
func (h *MentorSessionHandler) ListMessages(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	messages, err := h.service.ListMessages(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": dtos.NewChatMessageResponses(messages)})
}

// POST /api/sessions/:id/messages
func (h *MentorSessionHandler) SendMessage(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}

	var req dtos.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), userID, sessionID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewChatMessageResponse(msg))
}

// POST /api/sessions/:id/messages/read
func (h *MentorSessionHandler) MarkRead(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	updated, err := h.service.MarkMessagesRead(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.MarkReadResponse{Updated: updated})
}

// GET /api/sessions/:id/report
func (h *MentorSessionHandler) GetReport(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}
	report, err := h.service.GetReport(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewReportResponse(report))
}

// POST /api/sessions/:id/report
func (h *MentorSessionHandler) SubmitReport(c *gin.Context) {
	userID, sessionID, ok := caller(c, true)
	if !ok {
		return
	}

	var req dtos.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	report, err := h.service.SubmitReport(c.Request.Context(), userID, sessionID, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewReportResponse(report))
}
