package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventdeck/cmd/middleware"
	"eventdeck/internal/service"
)

type Routers struct {
	Service *service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/login", r.Service.HandleLogin)
	apiGroup.POST("/auth/signup", r.Service.HandleSignup)
	apiGroup.POST("/auth/logout", r.Service.HandleLogout)
	apiGroup.GET("/session", r.Service.HandleSession)
	apiGroup.PUT("/session/user", r.Service.HandlePatchProfile)

	apiGroup.GET("/events", r.Service.HandleListEvents)
	apiGroup.GET("/visible-events", r.Service.HandleVisibleEvents)
	apiGroup.GET("/vendors/:userId/events", r.Service.HandleVendorEvents)
	apiGroup.POST("/events", r.Service.HandleCreateEvent)
	apiGroup.GET("/events/:id", r.Service.HandleGetEvent)
	apiGroup.PUT("/events/:id", r.Service.HandleUpdateEvent)
	apiGroup.DELETE("/events/:id", r.Service.HandleDeleteEvent)
	apiGroup.GET("/events/:id/stats", r.Service.HandleStats)
	apiGroup.POST("/events/:id/team", r.Service.HandleAddTeamMember)
	apiGroup.DELETE("/events/:id/team/:memberId", r.Service.HandleRemoveTeamMember)

	apiGroup.GET("/users/search", r.Service.HandleSearchUsers)

	apiGroup.GET("/guests", r.Service.HandleListGuests)
	apiGroup.POST("/guests", r.Service.HandleCreateGuest)
	apiGroup.PUT("/guests/:id", r.Service.HandleUpdateGuest)
	apiGroup.DELETE("/guests/:id", r.Service.HandleDeleteGuest)
	apiGroup.POST("/guests/:id/checkin", r.Service.HandleCheckInGuest)

	return app
}
