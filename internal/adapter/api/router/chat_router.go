package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
	"roadmech/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.GET("", chatHandler.ListMine)
	chats.GET("/unread", chatHandler.TotalUnread)
	chats.POST("/booking/:bookingId", chatHandler.OpenForBooking)
	chats.GET("/:id/messages", chatHandler.Messages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
	chats.POST("/:id/read", chatHandler.MarkRead)
	chats.GET("/:id/unread", chatHandler.UnreadCount)
}
