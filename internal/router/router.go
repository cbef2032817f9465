package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/fastygo/habitflow/api/handler"
	"github.com/fastygo/habitflow/internal/middleware"
)

type Handlers struct {
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, auth middleware.Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	v1 := r.Group("/api/v1")

	v1.POST("/profile", auth(handlers.Profile.Onboard))
	v1.GET("/profile", auth(handlers.Profile.GetProfile))
	v1.GET("/profile/streak", auth(handlers.Profile.GetStreak))

	v1.GET("/tasks", auth(handlers.Task.ListWeek))
	v1.POST("/tasks", auth(handlers.Task.CreateTask))
	v1.GET("/tasks/{id}", auth(handlers.Task.GetTask))
	v1.GET("/tasks/{id}/events", auth(handlers.Task.History))
	v1.POST("/tasks/{id}/suggestion", auth(handlers.Task.Suggest))
	v1.POST("/tasks/{id}/start", auth(handlers.Task.Start))
	v1.POST("/tasks/{id}/complete", auth(handlers.Task.Complete))
	v1.POST("/tasks/{id}/uncomplete", auth(handlers.Task.Uncomplete))
	v1.POST("/tasks/{id}/cancel", auth(handlers.Task.CancelStart))

	return r
}
