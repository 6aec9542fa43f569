package rest

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/service"
	"github.com/gin-gonic/gin"
)

type scheduleBody struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MeetingLink string    `json:"meeting_link"`
	Agenda      string    `json:"agenda"`
}

func (h *Handler) GetMentorship(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mentorship, err := h.services.Lifecycle.GetMentorship(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentorship)
}

func (h *Handler) TerminateMentorship(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body reasonBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	mentorship, err := h.services.Lifecycle.Terminate(c.Request.Context(), id, actorFrom(c), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentorship)
}

func (h *Handler) CompleteMentorship(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mentorship, err := h.services.Lifecycle.Complete(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentorship)
}

func (h *Handler) ScheduleSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body scheduleBody
	if !bindJSON(c, &body) {
		return
	}

	session, err := h.services.Sessions.Schedule(c.Request.Context(), actorFrom(c), id, service.ScheduleInput{
		Start:       body.StartTime,
		End:         body.EndTime,
		MeetingLink: body.MeetingLink,
		Agenda:      body.Agenda,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}
