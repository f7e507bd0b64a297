package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
	"roadmech/internal/adapter/api/middleware"
)

func SetupSubscriptionRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	subscriptionHandler := handler.GetSubscriptionHandler()

	subs := e.Group("/v1/subscriptions")
	subs.Use(authMiddleware.Authenticate)

	subs.POST("", subscriptionHandler.Subscribe)
	subs.GET("/current", subscriptionHandler.Current)
	subs.GET("/entitlement", subscriptionHandler.Entitlement)
	subs.GET("/history", subscriptionHandler.History)
	subs.POST("/cancel", subscriptionHandler.Cancel)
}
