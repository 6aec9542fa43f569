package rest

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pathID разбирает :id; при ошибке уже ответил 400
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса; при ошибке уже ответил 400
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "request body is not valid JSON for this operation")
		return false
	}
	return true
}

// bindOptionalJSON как bindJSON, но пустое тело допустимо
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "request body is not valid JSON for this operation")
		return false
	}
	return true
}

// mentorFilter фильтр каталога из query-параметров
func mentorFilter(c *gin.Context) (model.MentorFilter, string, bool) {
	f := model.MentorFilter{
		Search: c.Query("search"),
		SortBy: model.MentorSort(c.Query("sort")),
	}

	for _, raw := range c.QueryArray("expertise") {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Expertise = append(f.Expertise, tag)
			}
		}
	}

	if v := c.Query("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, "min_rating must be a number", false
		}
		f.MinRating = rating
	}
	if v := c.Query("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return f, "available must be true or false", false
		}
		f.AvailableOnly = available
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return f, "page must be an integer", false
		}
		f.Page = page
	}
	if v := c.Query("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return f, "page_size must be an integer", false
		}
		f.PageSize = size
	}

	return f, "", true
}
