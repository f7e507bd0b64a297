package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"roadmech/internal/usecase"
	"roadmech/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

// OpenForBooking gets or creates the booking's chat.
func (h *ChatHandler) OpenForBooking(c echo.Context) error {
	uid := c.Get("uid").(string)

	chat, err := h.chatUseCase.OpenForBooking(c.Request().Context(), c.Param("bookingId"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) ListMine(c echo.Context) error {
	uid := c.Get("uid").(string)

	chats, err := h.chatUseCase.ListMine(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

func (h *ChatHandler) Messages(c echo.Context) error {
	uid := c.Get("uid").(string)

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.chatUseCase.Messages(c.Request().Context(), c.Param("id"), uid, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Content     string   `json:"content" validate:"max=2000"`
		Attachments []string `json:"attachments" validate:"max=10"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.chatUseCase.SendMessage(c.Request().Context(), c.Param("id"), uid, req.Content, req.Attachments)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, msg)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	flipped, err := h.chatUseCase.MarkRead(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"marked_read": len(flipped),
		"message_ids": flipped,
	})
}

func (h *ChatHandler) UnreadCount(c echo.Context) error {
	uid := c.Get("uid").(string)

	count, err := h.chatUseCase.UnreadCount(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread": count})
}

// TotalUnread is the badge count across all of the user's chats.
func (h *ChatHandler) TotalUnread(c echo.Context) error {
	uid := c.Get("uid").(string)

	count, err := h.chatUseCase.TotalUnread(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread": count})
}
