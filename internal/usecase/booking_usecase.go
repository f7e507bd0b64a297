package usecase

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/internal/domain/service"
	"roadmech/pkg/errors"
)

type BookingUseCase struct {
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	profileRepo repository.MechanicProfileRepository
	chatRepo    repository.ChatRepository
	subs        *SubscriptionUseCase
	payment     service.PaymentService
	fileService service.FileUploadService
	notifier    Notifier
}

func NewBookingUseCase(
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	profileRepo repository.MechanicProfileRepository,
	chatRepo repository.ChatRepository,
	subs *SubscriptionUseCase,
	payment service.PaymentService,
	fileService service.FileUploadService,
	notifier Notifier,
) *BookingUseCase {
	return &BookingUseCase{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		chatRepo:    chatRepo,
		subs:        subs,
		payment:     payment,
		fileService: fileService,
		notifier:    notifier,
	}
}

type CreateBookingInput struct {
	ProblemType    string
	Description    string
	Images         []string
	Location       entity.Location
	Emergency      bool
	RequiresTowing bool
	TowingPickup   *entity.Location
	TowingDrop     *entity.Location
	ScheduledAt    *time.Time
}

// Create opens a pending booking. Basic-tier users are limited by a live
// count of their non-cancelled bookings; premium perks (discount, free
// towing) are stamped onto the payment at creation time.
func (uc *BookingUseCase) Create(ctx context.Context, customerID string, input CreateBookingInput) (*entity.Booking, error) {
	customer, err := uc.userRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.Role != entity.RoleCustomer {
		return nil, errors.Forbidden("Only customers can create bookings", nil)
	}

	if !entity.ValidProblemType(input.ProblemType) {
		return nil, errors.BadRequest("Unknown problem type: "+input.ProblemType, nil)
	}
	if err := input.Location.Point.Validate(); err != nil {
		return nil, err
	}

	ent, err := uc.subs.Resolve(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if ent.Features.BookingLimit >= 0 && ent.BookingsRemaining <= 0 {
		return nil, errors.Forbidden("Booking limit reached, upgrade to premium for unlimited bookings", nil)
	}
	if input.Emergency && !ent.Features.EmergencyAssistance {
		return nil, errors.Forbidden("Emergency assistance requires a yearly subscription", nil)
	}

	now := time.Now()
	booking := &entity.Booking{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		ProblemType: input.ProblemType,
		Description: input.Description,
		Images:      input.Images,
		Location:    input.Location,
		Status:      entity.BookingPending,
		Emergency:   input.Emergency,
		Priority:    entity.PriorityTier(ent.Features, input.Emergency),
		ScheduledAt: input.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Payment: entity.Payment{
			Status: entity.PaymentPending,
		},
	}

	if ent.Features.Discounts > 0 {
		booking.Payment.DiscountApplied = true
		booking.Payment.DiscountPercent = ent.Features.Discounts
	}

	if input.RequiresTowing {
		if input.TowingDrop == nil {
			return nil, errors.BadRequest("Towing dropoff location is required", nil)
		}
		if err := input.TowingDrop.Point.Validate(); err != nil {
			return nil, err
		}

		booking.Towing.Required = true
		booking.Towing.DropLocation = *input.TowingDrop
		// Pickup defaults to where the bike broke down.
		if input.TowingPickup != nil {
			if err := input.TowingPickup.Point.Validate(); err != nil {
				return nil, err
			}
			booking.Towing.PickupLocation = *input.TowingPickup
		} else {
			booking.Towing.PickupLocation = input.Location
		}
		booking.Towing.Status = "requested"

		if ent.FreeTowingLeft > 0 {
			booking.Payment.FreeTowingUsed = true
		}
	}

	if err := uc.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if ent.Plan == entity.PlanNone {
		if err := uc.userRepo.AdjustBasicBookingsUsed(ctx, customerID, 1); err != nil {
			log.Printf("Failed to bump booking counter for %s: %v", customerID, err)
		}
	}

	return booking, nil
}

// UploadImage stores a breakdown photo and returns the public URL, which
// the client passes back in the create request's image list.
func (uc *BookingUseCase) UploadImage(ctx context.Context, file io.Reader, contentType string) (string, error) {
	if contentType != "image/jpeg" && contentType != "image/jpg" && contentType != "image/png" {
		return "", errors.BadRequest("Booking photo must be JPEG or PNG", nil)
	}

	url, err := uc.fileService.UploadFile(ctx, file, contentType, "bookings", true)
	if err != nil {
		return "", errors.ExternalService("Failed to upload booking photo", err)
	}
	return url, nil
}

func (uc *BookingUseCase) GetBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	return uc.bookingRepo.GetByID(ctx, bookingID)
}

// Get enforces that only the participants (or an admin) see a booking.
func (uc *BookingUseCase) Get(ctx context.Context, bookingID, actorID string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, booking, actorID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (uc *BookingUseCase) ListByCustomer(ctx context.Context, customerID string) ([]*entity.Booking, error) {
	return uc.bookingRepo.ListByCustomer(ctx, customerID)
}

func (uc *BookingUseCase) ListByMechanic(ctx context.Context, mechanicID string) ([]*entity.Booking, error) {
	return uc.bookingRepo.ListByMechanic(ctx, mechanicID)
}

// Accept races are settled in the repository transaction: the first
// mechanic wins, the rest get a state conflict.
func (uc *BookingUseCase) Accept(ctx context.Context, bookingID, mechanicID string) (*entity.Booking, error) {
	mechanic, err := uc.userRepo.GetByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !mechanic.IsMechanic() {
		return nil, errors.Forbidden("Only mechanics can accept bookings", nil)
	}
	if !mechanic.IsApproved {
		return nil, errors.Forbidden("Account pending approval", nil)
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !profile.Availability {
		return nil, errors.Forbidden("Set yourself available before accepting bookings", nil)
	}

	booking, err := uc.bookingRepo.AssignMechanic(ctx, bookingID, mechanicID)
	if err != nil {
		return nil, err
	}

	uc.ensureChat(ctx, booking)
	uc.notifier.NotifyBookingStatus(booking)
	return booking, nil
}

// SelectMechanic lets the owning customer, or an admin, hand a pending
// booking to a specific mechanic from the nearby list. Converges on the
// same conditional transition as a mechanic self-accept.
func (uc *BookingUseCase) SelectMechanic(ctx context.Context, bookingID, actorID, mechanicID string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != actorID && !actor.IsAdmin() {
		return nil, errors.Forbidden("Not your booking", nil)
	}

	return uc.Accept(ctx, bookingID, mechanicID)
}

// ensureChat creates the booking's conversation once both sides exist.
// Failures are logged; the chat can still be created lazily on first open.
func (uc *BookingUseCase) ensureChat(ctx context.Context, booking *entity.Booking) {
	if _, err := uc.chatRepo.GetByBookingID(ctx, booking.ID); err == nil || !errors.Is(err, "NOT_FOUND") {
		return
	}

	now := time.Now()
	chat := &entity.Chat{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		MechanicID: booking.MechanicID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		log.Printf("Failed to create chat for booking %s: %v", booking.ID, err)
	}
}

// ChangeStatus applies one transition of the booking state machine on
// behalf of actorID. The conditional write in the repository keeps
// concurrent transitions from double-applying.
func (uc *BookingUseCase) ChangeStatus(ctx context.Context, bookingID, actorID, to string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeTransition(booking, actor, to); err != nil {
		return nil, err
	}
	if err := entity.ValidateTransition(booking.Status, to); err != nil {
		return nil, err
	}

	if to == entity.BookingAccepted {
		if !actor.IsMechanic() {
			return nil, errors.BadRequest("Assignment needs a mechanic, use mechanic selection", nil)
		}
		return uc.Accept(ctx, bookingID, actorID)
	}
	if to == entity.BookingCompleted {
		return nil, errors.BadRequest("Completing a booking requires a service amount", nil)
	}

	updated, err := uc.bookingRepo.UpdateStatus(ctx, bookingID, booking.Status, to)
	if err != nil {
		return nil, err
	}

	if to == entity.BookingCancelled {
		uc.onCancelled(ctx, updated)
	}

	uc.notifier.NotifyBookingStatus(updated)
	return updated, nil
}

// Complete finishes the job and records what it cost. The conditional
// write in the repository stamps the amount and the completion time in one
// step; payment stays pending until the customer settles it.
func (uc *BookingUseCase) Complete(ctx context.Context, bookingID, actorID string, amount int64) (*entity.Booking, error) {
	if amount <= 0 {
		return nil, errors.BadRequest("Service amount must be positive", nil)
	}

	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeTransition(booking, actor, entity.BookingCompleted); err != nil {
		return nil, err
	}
	if err := entity.ValidateTransition(booking.Status, entity.BookingCompleted); err != nil {
		return nil, err
	}

	updated, err := uc.bookingRepo.Complete(ctx, bookingID, amount)
	if err != nil {
		return nil, err
	}

	uc.notifier.NotifyBookingStatus(updated)
	return updated, nil
}

func (uc *BookingUseCase) Cancel(ctx context.Context, bookingID, actorID string) (*entity.Booking, error) {
	return uc.ChangeStatus(ctx, bookingID, actorID, entity.BookingCancelled)
}

func (uc *BookingUseCase) onCancelled(ctx context.Context, booking *entity.Booking) {
	// Give the slot back to basic-tier customers; best effort, the live
	// count is authoritative either way. Premium customers never consumed
	// a slot, so there is nothing to return.
	if ent, err := uc.subs.Resolve(ctx, booking.CustomerID); err == nil && ent.Plan == entity.PlanNone {
		if err := uc.userRepo.AdjustBasicBookingsUsed(ctx, booking.CustomerID, -1); err != nil {
			log.Printf("Failed to release booking counter for %s: %v", booking.CustomerID, err)
		}
	}

	if booking.Payment.Status == entity.PaymentCompleted && booking.Payment.TransactionID != "" {
		if _, err := uc.payment.Refund(ctx, booking.Payment.TransactionID, 0); err != nil {
			log.Printf("Refund failed for booking %s: %v", booking.ID, err)
			return
		}
		booking.Payment.Status = entity.PaymentRefunded
		if err := uc.bookingRepo.Update(ctx, booking); err != nil {
			log.Printf("Failed to record refund for booking %s: %v", booking.ID, err)
		}
	}
}

// Pay settles a completed booking against the service amount the mechanic
// recorded at completion. The discount stamped at creation and any free
// towing allowance come off before the charge.
func (uc *BookingUseCase) Pay(ctx context.Context, bookingID, customerID string, towingAmount int64) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, errors.Forbidden("Not your booking", nil)
	}
	if booking.Status != entity.BookingCompleted {
		return nil, errors.StateConflict("Booking must be completed before payment", nil)
	}
	if booking.Payment.Status != entity.PaymentPending {
		return nil, errors.StateConflict("Payment already "+booking.Payment.Status, nil)
	}
	if booking.Payment.Amount <= 0 {
		return nil, errors.StateConflict("Booking has no recorded service amount", nil)
	}

	customer, err := uc.userRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	amount := booking.Payment.Amount
	if booking.Payment.DiscountApplied {
		amount = amount * int64(100-booking.Payment.DiscountPercent) / 100
	}
	if booking.Towing.Required && !booking.Payment.FreeTowingUsed {
		amount += towingAmount
	}

	charge, err := uc.payment.Charge(ctx, service.ChargeRequest{
		OrderID:     booking.ID,
		Amount:      amount,
		Description: "Bike repair: " + booking.ProblemType,
		CustomerID:  customerID,
		Email:       customer.Email,
	})
	if err != nil {
		return nil, err
	}
	if charge.Status != "succeeded" {
		return nil, errors.ExternalService("Payment was not completed", nil)
	}

	booking.Payment.Status = entity.PaymentCompleted
	booking.Payment.Amount = amount
	booking.Payment.TransactionID = charge.TransactionID
	if err := uc.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// Rate records a one-time rating on a completed, paid booking and folds it
// into the mechanic's running average.
func (uc *BookingUseCase) Rate(ctx context.Context, bookingID, customerID string, rating int, comment string) (*entity.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, errors.BadRequest("Rating must be between 1 and 5", nil)
	}

	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, errors.Forbidden("Not your booking", nil)
	}
	if !booking.CanBeRated() {
		return nil, errors.StateConflict("Booking cannot be rated yet", nil)
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, booking.MechanicID)
	if err != nil {
		return nil, err
	}

	review := entity.Review{
		ReviewerID: customerID,
		Rating:     rating,
		Comment:    comment,
		Date:       time.Now(),
	}
	if err := uc.profileRepo.AppendReview(ctx, profile.ID, review); err != nil {
		return nil, err
	}

	booking.Payment.Rated = true
	booking.Payment.Rating = float64(rating)
	if err := uc.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// UpdateTowingStatus is mechanic-driven progress on the tow itself,
// independent of the service state machine.
func (uc *BookingUseCase) UpdateTowingStatus(ctx context.Context, bookingID, actorID, towStatus string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Towing.Required {
		return nil, errors.BadRequest("Booking has no towing request", nil)
	}
	if booking.MechanicID != actorID {
		return nil, errors.Forbidden("Only the assigned mechanic can update towing", nil)
	}
	if booking.IsTerminal() {
		return nil, errors.StateConflict("Booking is already "+booking.Status, nil)
	}

	booking.Towing.Status = towStatus
	if err := uc.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	uc.notifier.NotifyTowingStatus(booking)
	return booking, nil
}

func (uc *BookingUseCase) authorize(ctx context.Context, booking *entity.Booking, actorID string) error {
	if booking.CustomerID == actorID || booking.MechanicID == actorID {
		return nil
	}
	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err == nil && actor.IsAdmin() {
		return nil
	}
	return errors.Forbidden("Not a participant of this booking", nil)
}

func (uc *BookingUseCase) authorizeTransition(booking *entity.Booking, actor *entity.User, to string) error {
	if actor.IsAdmin() {
		return nil
	}

	switch to {
	case entity.BookingCancelled:
		if booking.CustomerID == actor.ID {
			return nil
		}
	case entity.BookingAccepted:
		if actor.IsMechanic() {
			return nil
		}
	case entity.BookingInProgress, entity.BookingCompleted:
		if booking.MechanicID == actor.ID {
			return nil
		}
	}

	return errors.Forbidden("Not allowed to change this booking", nil)
}
