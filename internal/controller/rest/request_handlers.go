package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type submitRequestBody struct {
	MentorID uuid.UUID `json:"mentor_id"`
	Message  string    `json:"message"`
	Goals    string    `json:"goals"`
}

type reasonBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) SubmitRequest(c *gin.Context) {
	var body submitRequestBody
	if !bindJSON(c, &body) {
		return
	}
	if body.MentorID == uuid.Nil {
		badRequest(c, "mentor_id is required")
		return
	}

	req, err := h.services.Requests.SubmitRequest(c.Request.Context(), actorFrom(c), body.MentorID, body.Message, body.Goals)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.services.Requests.GetRequest(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) AcceptRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mentorship, err := h.services.Lifecycle.Accept(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mentorship)
}

func (h *Handler) RejectRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body reasonBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	req, err := h.services.Lifecycle.Reject(c.Request.Context(), id, actorFrom(c), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.services.Lifecycle.Cancel(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
