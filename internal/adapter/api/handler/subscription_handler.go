package handler

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/usecase"
	"roadmech/pkg/response"
)

type SubscriptionHandler struct {
	subscriptionUseCase *usecase.SubscriptionUseCase
}

func NewSubscriptionHandler(subscriptionUseCase *usecase.SubscriptionUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionUseCase: subscriptionUseCase,
	}
}

func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Plan string `json:"plan" validate:"required,oneof=monthly yearly"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sub, err := h.subscriptionUseCase.Subscribe(c.Request().Context(), uid, req.Plan)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, sub)
}

func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	uid := c.Get("uid").(string)

	sub, err := h.subscriptionUseCase.Cancel(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, sub)
}

func (h *SubscriptionHandler) Current(c echo.Context) error {
	uid := c.Get("uid").(string)

	sub, err := h.subscriptionUseCase.Current(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, sub)
}

// Entitlement exposes the resolved feature set so clients render limits
// without re-deriving plan rules.
func (h *SubscriptionHandler) Entitlement(c echo.Context) error {
	uid := c.Get("uid").(string)

	ent, err := h.subscriptionUseCase.Resolve(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ent)
}

func (h *SubscriptionHandler) History(c echo.Context) error {
	uid := c.Get("uid").(string)

	subs, err := h.subscriptionUseCase.History(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, subs)
}
