package rest

import (
	"net/http"
	"strings"

	"github.com/Freeeeeet/mentorship_service/internal/auth"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// requireAuth пропускает только запросы с валидным Bearer-токеном
func requireAuth(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		actor, err := a.Parse(tokenString)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		// системная роль только для фоновых задач внутри процесса
		if actor.IsSystem() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorEnvelope{
				Error: APIError{
					Code:    "not_authorized",
					Message: "system tokens are not accepted by the API",
					Hint:    "Use a student or mentor access token",
				},
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorEnvelope{
		Error: APIError{
			Code:    "unauthorized",
			Message: message,
			Hint:    "Sign in again to get a fresh access token",
		},
	})
}

// actorFrom вызывающая сторона, положенная requireAuth
func actorFrom(c *gin.Context) model.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}
	}
	actor, _ := v.(model.Actor)
	return actor
}
