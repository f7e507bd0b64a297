package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
	"roadmech/internal/adapter/api/middleware"
)

func SetupBookingRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	bookingHandler := handler.GetBookingHandler()

	e.GET("/v1/problem-types", bookingHandler.ProblemTypes)

	bookings := e.Group("/v1/bookings")
	bookings.Use(authMiddleware.Authenticate)

	bookings.POST("", bookingHandler.Create)
	bookings.GET("", bookingHandler.ListMine)
	bookings.POST("/images", bookingHandler.UploadImage)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.POST("/:id/accept", bookingHandler.Accept)
	bookings.POST("/:id/select-mechanic", bookingHandler.SelectMechanic)
	bookings.PATCH("/:id/status", bookingHandler.UpdateStatus)
	bookings.POST("/:id/complete", bookingHandler.Complete)
	bookings.POST("/:id/cancel", bookingHandler.Cancel)
	bookings.POST("/:id/pay", bookingHandler.Pay)
	bookings.POST("/:id/rate", bookingHandler.Rate)
	bookings.PATCH("/:id/towing", bookingHandler.UpdateTowing)
}
