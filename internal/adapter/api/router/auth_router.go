package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
	"roadmech/internal/adapter/api/middleware"
)

func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	authHandler := handler.GetAuthHandler()

	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/register-mechanic", authHandler.RegisterMechanic)
	e.POST("/v1/auth/verify-otp", authHandler.VerifyMechanicOTP)
	e.POST("/v1/auth/login", authHandler.Login)
	e.POST("/v1/auth/refresh", authHandler.RefreshToken)

	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate)
	protected.GET("/me", authHandler.Me)
}
