package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusFor HTTP-статус для вида ошибки
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	case apperr.KindInvalidState:
		return http.StatusUnprocessableEntity
	case apperr.KindDuplicateRequest, apperr.KindDuplicateFeedback,
		apperr.KindTimeConflict, apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// hintFor подсказка пользователю, что делать дальше
func hintFor(kind apperr.Kind) string {
	switch kind {
	case apperr.KindValidation:
		return "Check the highlighted fields and try again"
	case apperr.KindNotFound:
		return "It may have been removed; refresh the page"
	case apperr.KindNotAuthorized:
		return "Only participants can perform this action"
	case apperr.KindInvalidState:
		return "Refresh to see the current status"
	case apperr.KindDuplicateRequest:
		return "You already have a pending request or an active mentorship with this mentor"
	case apperr.KindDuplicateFeedback:
		return "You have already left feedback for this session"
	case apperr.KindTimeConflict:
		return "The mentor already has a session at this time; pick another slot"
	case apperr.KindConflict:
		return "Someone changed this at the same time; refresh and try again"
	default:
		return ""
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		h.logger.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{
				Code:    "internal",
				Message: "internal error",
				Hint:    "Please try again later",
			},
		})
		return
	}

	c.JSON(statusFor(appErr.Kind), ErrorEnvelope{
		Error: APIError{
			Code:    string(appErr.Kind),
			Message: appErr.Message,
			Hint:    hintFor(appErr.Kind),
		},
	})
}

// badRequest ошибка разбора тела или параметров запроса
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{
			Code:    string(apperr.KindValidation),
			Message: message,
			Hint:    hintFor(apperr.KindValidation),
		},
	})
}
