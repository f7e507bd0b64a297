package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"roadmech/internal/domain/entity"
	"roadmech/internal/usecase"
	"roadmech/pkg/errors"
	"roadmech/pkg/response"
)

type BookingHandler struct {
	bookingUseCase  *usecase.BookingUseCase
	matchingUseCase *usecase.MatchingUseCase
}

func NewBookingHandler(bookingUseCase *usecase.BookingUseCase, matchingUseCase *usecase.MatchingUseCase) *BookingHandler {
	return &BookingHandler{
		bookingUseCase:  bookingUseCase,
		matchingUseCase: matchingUseCase,
	}
}

type createBookingRequest struct {
	ProblemType    string           `json:"problem_type" validate:"required"`
	Description    string           `json:"description" validate:"max=1000"`
	Images         []string         `json:"images" validate:"max=5"`
	Location       locationRequest  `json:"location" validate:"required"`
	Emergency      bool             `json:"emergency"`
	RequiresTowing bool             `json:"requires_towing"`
	TowingPickup   *locationRequest `json:"towing_pickup"`
	TowingDrop     *locationRequest `json:"towing_drop"`
	ScheduledAt    *time.Time       `json:"scheduled_at"`
}

func (h *BookingHandler) Create(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.CreateBookingInput{
		ProblemType:    req.ProblemType,
		Description:    req.Description,
		Images:         req.Images,
		Location:       req.Location.toEntity(),
		Emergency:      req.Emergency,
		RequiresTowing: req.RequiresTowing,
		ScheduledAt:    req.ScheduledAt,
	}
	if req.TowingPickup != nil {
		loc := req.TowingPickup.toEntity()
		input.TowingPickup = &loc
	}
	if req.TowingDrop != nil {
		loc := req.TowingDrop.toEntity()
		input.TowingDrop = &loc
	}

	booking, err := h.bookingUseCase.Create(c.Request().Context(), uid, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, booking)
}

func (h *BookingHandler) Get(c echo.Context) error {
	uid := c.Get("uid").(string)

	booking, err := h.bookingUseCase.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) ListMine(c echo.Context) error {
	uid := c.Get("uid").(string)

	bookings, err := h.bookingUseCase.ListByCustomer(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, bookings)
}

func (h *BookingHandler) Accept(c echo.Context) error {
	uid := c.Get("uid").(string)

	booking, err := h.bookingUseCase.Accept(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) SelectMechanic(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		MechanicID string `json:"mechanic_id" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	booking, err := h.bookingUseCase.SelectMechanic(c.Request().Context(), c.Param("id"), uid, req.MechanicID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Status string `json:"status" validate:"required,oneof=accepted in-progress completed cancelled"`
		Amount int64  `json:"amount" validate:"min=0"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	// Completion records the service amount in the same step.
	var booking *entity.Booking
	var err error
	if req.Status == entity.BookingCompleted {
		booking, err = h.bookingUseCase.Complete(c.Request().Context(), c.Param("id"), uid, req.Amount)
	} else {
		booking, err = h.bookingUseCase.ChangeStatus(c.Request().Context(), c.Param("id"), uid, req.Status)
	}
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) Complete(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	booking, err := h.bookingUseCase.Complete(c.Request().Context(), c.Param("id"), uid, req.Amount)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	uid := c.Get("uid").(string)

	booking, err := h.bookingUseCase.Cancel(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) Pay(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		TowingAmount int64 `json:"towing_amount" validate:"min=0"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	booking, err := h.bookingUseCase.Pay(c.Request().Context(), c.Param("id"), uid, req.TowingAmount)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) Rate(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Rating  int    `json:"rating" validate:"required,min=1,max=5"`
		Comment string `json:"comment" validate:"max=500"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	booking, err := h.bookingUseCase.Rate(c.Request().Context(), c.Param("id"), uid, req.Rating, req.Comment)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

func (h *BookingHandler) UpdateTowing(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		Status string `json:"status" validate:"required,oneof=requested en-route picked-up delivered"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	booking, err := h.bookingUseCase.UpdateTowingStatus(c.Request().Context(), c.Param("id"), uid, req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, booking)
}

// UploadImage stores one breakdown photo and returns its URL; the client
// collects the URLs and sends them in the create request.
func (h *BookingHandler) UploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("failed to open uploaded file", err))
	}
	defer file.Close()

	url, err := h.bookingUseCase.UploadImage(
		c.Request().Context(), file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}

// ProblemTypes lists the accepted categories so clients do not hardcode them.
func (h *BookingHandler) ProblemTypes(c echo.Context) error {
	return response.Success(c, entity.ProblemCategories)
}
