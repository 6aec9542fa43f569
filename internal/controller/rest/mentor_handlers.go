package rest

import (
	"net/http"

	"github.com/Freeeeeet/mentorship_service/internal/service"
	"github.com/gin-gonic/gin"
)

type registerMentorBody struct {
	ExpertiseTags     []string `json:"expertise_tags"`
	YearsOfExperience int      `json:"years_of_experience"`
	MaxMentees        *int     `json:"max_mentees"`
}

type availabilityBody struct {
	IsAvailable *bool `json:"is_available"`
}

type capacityBody struct {
	MaxMentees *int `json:"max_mentees"`
}

func (h *Handler) ListMentors(c *gin.Context) {
	filter, msg, ok := mentorFilter(c)
	if !ok {
		badRequest(c, msg)
		return
	}

	page, err := h.services.Directory.ListMentors(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) ExpertiseAreas(c *gin.Context) {
	areas, err := h.services.Directory.ExpertiseAreas(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expertise": areas})
}

func (h *Handler) GetMentor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.services.Directory.GetMentor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) RegisterMentor(c *gin.Context) {
	var body registerMentorBody
	if !bindJSON(c, &body) {
		return
	}

	profile, err := h.services.Directory.RegisterMentor(c.Request.Context(), actorFrom(c), service.RegisterMentorInput{
		ExpertiseTags:     body.ExpertiseTags,
		YearsOfExperience: body.YearsOfExperience,
		MaxMentees:        body.MaxMentees,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var body availabilityBody
	if !bindJSON(c, &body) {
		return
	}
	if body.IsAvailable == nil {
		badRequest(c, "is_available is required")
		return
	}

	profile, err := h.services.Directory.SetAvailability(c.Request.Context(), actorFrom(c), *body.IsAvailable)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetCapacity null в max_mentees снимает ограничение
func (h *Handler) SetCapacity(c *gin.Context) {
	var body capacityBody
	if !bindJSON(c, &body) {
		return
	}

	profile, err := h.services.Directory.SetCapacity(c.Request.Context(), actorFrom(c), body.MaxMentees)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) DeactivateMentor(c *gin.Context) {
	profile, err := h.services.Directory.Deactivate(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
