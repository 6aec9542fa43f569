package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type rescheduleBody struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type feedbackBody struct {
	Role     model.Role `json:"role"`
	Rating   int        `json:"rating"`
	Comments string     `json:"comments"`
}

func (h *Handler) GetSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session, err := h.services.Sessions.GetSession(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) RescheduleSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body rescheduleBody
	if !bindJSON(c, &body) {
		return
	}

	session, err := h.services.Sessions.Reschedule(c.Request.Context(), actorFrom(c), id, body.StartTime, body.EndTime)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) CancelSession(c *gin.Context) {
	h.sessionTransition(c, h.services.Sessions.Cancel)
}

func (h *Handler) CompleteSession(c *gin.Context) {
	h.sessionTransition(c, h.services.Sessions.Complete)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.sessionTransition(c, h.services.Sessions.MarkNoShow)
}

func (h *Handler) sessionTransition(c *gin.Context, apply func(context.Context, model.Actor, uuid.UUID) (*model.Session, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session, err := apply(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SubmitFeedback роль по умолчанию берётся из токена
func (h *Handler) SubmitFeedback(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body feedbackBody
	if !bindJSON(c, &body) {
		return
	}

	actor := actorFrom(c)
	role := body.Role
	if role == "" {
		role = actor.Role
	}

	feedback, err := h.services.Feedback.SubmitFeedback(c.Request.Context(), actor, id, role, body.Rating, body.Comments)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, feedback)
}

func (h *Handler) ListFeedback(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	feedback, err := h.services.Feedback.ListFeedback(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// GetDashboard роль из ?role, иначе из токена
func (h *Handler) GetDashboard(c *gin.Context) {
	actor := actorFrom(c)
	role := model.Role(c.DefaultQuery("role", string(actor.Role)))

	view, err := h.services.Dashboard.GetDashboardView(c.Request.Context(), actor.UserID, role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
