package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	mechanicMiddleware *middleware.MechanicMiddleware,
) {
	SetupAuthRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
	SetupBookingRouter(e, authMiddleware)
	SetupMechanicRouter(e, authMiddleware, mechanicMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupSubscriptionRouter(e, authMiddleware)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
	SetupHealthRouter(e)
}
