package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"roadmech/internal/usecase"
	"roadmech/pkg/response"
)

type AdminHandler struct {
	adminUseCase        *usecase.AdminUseCase
	subscriptionUseCase *usecase.SubscriptionUseCase
}

func NewAdminHandler(adminUseCase *usecase.AdminUseCase, subscriptionUseCase *usecase.SubscriptionUseCase) *AdminHandler {
	return &AdminHandler{
		adminUseCase:        adminUseCase,
		subscriptionUseCase: subscriptionUseCase,
	}
}

func (h *AdminHandler) ListPendingMechanics(c echo.Context) error {
	pending, err := h.adminUseCase.ListPendingMechanics(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, pending)
}

func (h *AdminHandler) ApproveMechanic(c echo.Context) error {
	user, err := h.adminUseCase.ApproveMechanic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *AdminHandler) RejectMechanic(c echo.Context) error {
	if err := h.adminUseCase.RejectMechanic(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Mechanic application rejected"})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.adminUseCase.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "User deleted"})
}

func (h *AdminHandler) ListSubscriptions(c echo.Context) error {
	subs, err := h.subscriptionUseCase.All(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, subs)
}

func (h *AdminHandler) GrantSubscription(c echo.Context) error {
	var req struct {
		UserID string `json:"user_id" validate:"required"`
		Plan   string `json:"plan" validate:"required,oneof=monthly yearly"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sub, err := h.subscriptionUseCase.Grant(c.Request().Context(), req.UserID, req.Plan)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, sub)
}

func (h *AdminHandler) UpdateSubscriptionStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status" validate:"required,oneof=active cancelled expired"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sub, err := h.subscriptionUseCase.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, sub)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	role := c.QueryParam("role")
	if role == "" {
		role = "user"
	}

	users, total, err := h.adminUseCase.ListUsers(c.Request().Context(), role, page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return response.Paginated(c, users, total, page, pageSize)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.adminUseCase.Stats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}
