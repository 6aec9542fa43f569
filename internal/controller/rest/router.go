package rest

import (
	"net/http"

	"github.com/Freeeeeet/mentorship_service/internal/auth"
	"github.com/Freeeeeet/mentorship_service/internal/metrics"
	"github.com/Freeeeeet/mentorship_service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services доменные сервисы, которые обслуживает REST-слой
type Services struct {
	Directory *service.DirectoryService
	Requests  *service.RequestService
	Lifecycle *service.LifecycleService
	Sessions  *service.SessionService
	Feedback  *service.FeedbackService
	Dashboard *service.DashboardService
}

type Handler struct {
	services Services
	logger   *zap.Logger
}

func NewHandler(services Services, logger *zap.Logger) *Handler {
	return &Handler{services: services, logger: logger}
}

type RouterConfig struct {
	Handler *Handler
	Auth    *auth.Authenticator
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics(cfg.Metrics), requestLogger(cfg.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := cfg.Handler
	api := router.Group("/api")
	api.Use(requireAuth(cfg.Auth))

	// Каталог менторов
	api.GET("/mentors", h.ListMentors)
	api.GET("/mentors/expertise", h.ExpertiseAreas)
	api.GET("/mentors/:id", h.GetMentor)
	api.PUT("/mentors/me", h.RegisterMentor)
	api.PATCH("/mentors/me/availability", h.SetAvailability)
	api.PATCH("/mentors/me/capacity", h.SetCapacity)
	api.DELETE("/mentors/me", h.DeactivateMentor)

	// Заявки
	api.POST("/requests", h.SubmitRequest)
	api.GET("/requests/:id", h.GetRequest)
	api.POST("/requests/:id/accept", h.AcceptRequest)
	api.POST("/requests/:id/reject", h.RejectRequest)
	api.POST("/requests/:id/cancel", h.CancelRequest)

	// Наставничества
	api.GET("/mentorships/:id", h.GetMentorship)
	api.POST("/mentorships/:id/terminate", h.TerminateMentorship)
	api.POST("/mentorships/:id/complete", h.CompleteMentorship)
	api.POST("/mentorships/:id/sessions", h.ScheduleSession)

	// Встречи и отзывы
	api.GET("/sessions/:id", h.GetSession)
	api.POST("/sessions/:id/reschedule", h.RescheduleSession)
	api.POST("/sessions/:id/cancel", h.CancelSession)
	api.POST("/sessions/:id/complete", h.CompleteSession)
	api.POST("/sessions/:id/no-show", h.MarkNoShow)
	api.POST("/sessions/:id/feedback", h.SubmitFeedback)
	api.GET("/sessions/:id/feedback", h.ListFeedback)

	api.GET("/dashboard", h.GetDashboard)

	return router
}
