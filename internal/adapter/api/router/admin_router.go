package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
	"roadmech/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	adminHandler := handler.GetAdminHandler()

	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate, adminMiddleware.AdminOnly)

	admin.GET("/mechanics/pending", adminHandler.ListPendingMechanics)
	admin.POST("/mechanics/:id/approve", adminHandler.ApproveMechanic)
	admin.POST("/mechanics/:id/reject", adminHandler.RejectMechanic)
	admin.GET("/users", adminHandler.ListUsers)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/subscriptions", adminHandler.ListSubscriptions)
	admin.POST("/subscriptions/grant", adminHandler.GrantSubscription)
	admin.PUT("/subscriptions/:id/status", adminHandler.UpdateSubscriptionStatus)
	admin.GET("/stats", adminHandler.Stats)
}
