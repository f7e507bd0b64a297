package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
	"roadmech/internal/adapter/api/middleware"
)

func SetupMechanicRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, mechanicMiddleware *middleware.MechanicMiddleware) {
	mechanicHandler := handler.GetMechanicHandler()

	// Customer-facing discovery.
	public := e.Group("/v1/mechanics")
	public.Use(authMiddleware.Authenticate)
	public.GET("/nearby", mechanicHandler.FindNearby)
	public.GET("/:id", mechanicHandler.GetPublicProfile)

	// Mechanic workspace.
	me := e.Group("/v1/mechanics/me")
	me.Use(authMiddleware.Authenticate, mechanicMiddleware.MechanicOnly)
	me.GET("/profile", mechanicHandler.GetOwnProfile)
	me.PATCH("/profile", mechanicHandler.UpdateProfile)
	me.POST("/availability", mechanicHandler.SetAvailability)
	me.POST("/documents", mechanicHandler.UploadDocument)
	me.GET("/nearby-bookings", mechanicHandler.NearbyBookings)
	me.GET("/bookings", mechanicHandler.AssignedBookings)
	me.GET("/earnings", mechanicHandler.Earnings)
}
