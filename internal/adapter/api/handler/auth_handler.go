package handler

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/domain/entity"
	"roadmech/internal/usecase"
	"roadmech/pkg/geo"
	"roadmech/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
	Address   string  `json:"address"`
}

func (l *locationRequest) toEntity() entity.Location {
	return entity.Location{
		Point:   geo.Point{Latitude: l.Latitude, Longitude: l.Longitude},
		Address: l.Address,
	}
}

type registerRequest struct {
	Name     string           `json:"name" validate:"required,min=2"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=8"`
	Phone    string           `json:"phone" validate:"omitempty,e164"`
	Location *locationRequest `json:"location"`
}

type userResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	IsApproved   bool   `json:"is_approved"`
	IsPremium    bool   `json:"is_premium"`
	PremiumTier  string `json:"premium_tier"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		IsApproved:   u.IsApproved,
		IsPremium:    u.IsPremium,
		PremiumTier:  u.PremiumTier,
		ProfileImage: u.ProfileImage,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	}
	if req.Location != nil {
		input.Location = req.Location.toEntity()
	}

	result, err := h.authUseCase.Register(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, authResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, authResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

type registerMechanicRequest struct {
	Name           string          `json:"name" validate:"required,min=2"`
	Email          string          `json:"email" validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=8"`
	Phone          string          `json:"phone" validate:"required,e164"`
	Specialization []string        `json:"specialization" validate:"required,min=1"`
	Experience     int             `json:"experience" validate:"min=0"`
	HourlyRate     float64         `json:"hourly_rate" validate:"required,gt=0"`
	Location       locationRequest `json:"location" validate:"required"`
}

func (h *AuthHandler) RegisterMechanic(c echo.Context) error {
	var req registerMechanicRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	err := h.authUseCase.RegisterMechanic(c.Request().Context(), usecase.RegisterMechanicInput{
		RegisterInput: usecase.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Location: req.Location.toEntity(),
		},
		Specialization: req.Specialization,
		Experience:     req.Experience,
		HourlyRate:     req.HourlyRate,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Verification code sent",
	})
}

func (h *AuthHandler) VerifyMechanicOTP(c echo.Context) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.VerifyMechanicOTP(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, authResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	idToken, refreshToken, err := h.authUseCase.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"token":         idToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	uid := c.Get("uid").(string)

	user, err := h.authUseCase.GetUserByID(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, toUserResponse(user))
}
