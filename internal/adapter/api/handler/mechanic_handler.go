package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"roadmech/internal/domain/entity"
	"roadmech/internal/usecase"
	"roadmech/pkg/errors"
	"roadmech/pkg/geo"
	"roadmech/pkg/response"
)

type MechanicHandler struct {
	mechanicUseCase *usecase.MechanicUseCase
	matchingUseCase *usecase.MatchingUseCase
	userUseCase     *usecase.UserUseCase
}

func NewMechanicHandler(
	mechanicUseCase *usecase.MechanicUseCase,
	matchingUseCase *usecase.MatchingUseCase,
	userUseCase *usecase.UserUseCase,
) *MechanicHandler {
	return &MechanicHandler{
		mechanicUseCase: mechanicUseCase,
		matchingUseCase: matchingUseCase,
		userUseCase:     userUseCase,
	}
}

// FindNearby is the customer-facing matching endpoint.
func (h *MechanicHandler) FindNearby(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("latitude"), 64)
	if err != nil {
		return response.Error(c, errors.BadRequest("latitude query parameter is required", err))
	}
	lng, err := strconv.ParseFloat(c.QueryParam("longitude"), 64)
	if err != nil {
		return response.Error(c, errors.BadRequest("longitude query parameter is required", err))
	}

	matches, err := h.matchingUseCase.FindMechanics(
		c.Request().Context(),
		geo.Point{Latitude: lat, Longitude: lng},
		c.QueryParam("problem_type"),
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, matches)
}

func (h *MechanicHandler) GetPublicProfile(c echo.Context) error {
	user, profile, err := h.userUseCase.GetMechanic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"user":    toUserResponse(user),
		"profile": profile,
	})
}

// Mechanic-side endpoints.

func (h *MechanicHandler) GetOwnProfile(c echo.Context) error {
	uid := c.Get("uid").(string)

	profile, err := h.mechanicUseCase.GetOwnProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}

type updateMechanicProfileRequest struct {
	Specialization []string               `json:"specialization"`
	Experience     *int                   `json:"experience" validate:"omitempty,min=0"`
	HourlyRate     *float64               `json:"hourly_rate" validate:"omitempty,gt=0"`
	Certifications []entity.Certification `json:"certifications"`
}

func (h *MechanicHandler) UpdateProfile(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req updateMechanicProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	profile, err := h.mechanicUseCase.UpdateProfile(c.Request().Context(), uid, usecase.UpdateMechanicProfileInput{
		Specialization: req.Specialization,
		Experience:     req.Experience,
		HourlyRate:     req.HourlyRate,
		Certifications: req.Certifications,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}

func (h *MechanicHandler) SetAvailability(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Available *bool `json:"available" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	profile, err := h.mechanicUseCase.SetAvailability(c.Request().Context(), uid, *req.Available)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}

func (h *MechanicHandler) UploadDocument(c echo.Context) error {
	uid := c.Get("uid").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("failed to open uploaded file", err))
	}
	defer file.Close()

	profile, err := h.mechanicUseCase.UploadDocument(
		c.Request().Context(), uid, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}

func (h *MechanicHandler) NearbyBookings(c echo.Context) error {
	uid := c.Get("uid").(string)

	nearby, err := h.matchingUseCase.NearbyPendingBookings(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, nearby)
}

func (h *MechanicHandler) AssignedBookings(c echo.Context) error {
	uid := c.Get("uid").(string)

	bookings, err := h.mechanicUseCase.AssignedBookings(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, bookings)
}

func (h *MechanicHandler) Earnings(c echo.Context) error {
	uid := c.Get("uid").(string)

	earnings, err := h.mechanicUseCase.Earnings(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, earnings)
}
