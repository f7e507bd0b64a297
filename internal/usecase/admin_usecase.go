package usecase

import (
	"context"
	"log"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/pkg/errors"
)

type AdminUseCase struct {
	userRepo    repository.UserRepository
	profileRepo repository.MechanicProfileRepository
	bookingRepo repository.BookingRepository
	subRepo     repository.SubscriptionRepository
	chatRepo    repository.ChatRepository
	authClient  FirebaseAuthClient
}

func NewAdminUseCase(
	userRepo repository.UserRepository,
	profileRepo repository.MechanicProfileRepository,
	bookingRepo repository.BookingRepository,
	subRepo repository.SubscriptionRepository,
	chatRepo repository.ChatRepository,
	authClient FirebaseAuthClient,
) *AdminUseCase {
	return &AdminUseCase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		bookingRepo: bookingRepo,
		subRepo:     subRepo,
		chatRepo:    chatRepo,
		authClient:  authClient,
	}
}

// PendingMechanic pairs the account with its profile and documents so an
// admin can review both in one screen.
type PendingMechanic struct {
	User    *entity.User            `json:"user"`
	Profile *entity.MechanicProfile `json:"profile"`
}

func (uc *AdminUseCase) ListPendingMechanics(ctx context.Context) ([]*PendingMechanic, error) {
	users, err := uc.userRepo.ListUnapprovedMechanics(ctx)
	if err != nil {
		return nil, err
	}

	var pending []*PendingMechanic
	for _, user := range users {
		profile, err := uc.profileRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			profile = nil
		}
		pending = append(pending, &PendingMechanic{User: user, Profile: profile})
	}

	return pending, nil
}

func (uc *AdminUseCase) ApproveMechanic(ctx context.Context, mechanicID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !user.IsMechanic() {
		return nil, errors.BadRequest("User is not a mechanic", nil)
	}
	if user.IsApproved {
		return user, nil
	}

	user.IsApproved = true
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RejectMechanic removes an unapproved mechanic application entirely:
// profile, user document and the auth account.
func (uc *AdminUseCase) RejectMechanic(ctx context.Context, mechanicID string) error {
	user, err := uc.userRepo.GetByID(ctx, mechanicID)
	if err != nil {
		return err
	}
	if !user.IsMechanic() {
		return errors.BadRequest("User is not a mechanic", nil)
	}
	if user.IsApproved {
		return errors.StateConflict("Mechanic is already approved", nil)
	}

	if err := uc.profileRepo.DeleteByUserID(ctx, mechanicID); err != nil {
		return err
	}
	if err := uc.userRepo.Delete(ctx, mechanicID); err != nil {
		return err
	}
	if err := uc.authClient.DeleteUser(ctx, mechanicID); err != nil {
		log.Printf("Failed to delete auth account for rejected mechanic %s: %v", mechanicID, err)
	}

	return nil
}

// DeleteUser removes an account and everything hanging off it: bookings
// with their chats, subscriptions, the mechanic profile if present, the
// user document and the auth account.
func (uc *AdminUseCase) DeleteUser(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return errors.Forbidden("Admin accounts cannot be deleted", nil)
	}

	bookingIDs, err := uc.bookingRepo.DeleteByCustomer(ctx, userID)
	if err != nil {
		return err
	}
	for _, bookingID := range bookingIDs {
		if err := uc.chatRepo.DeleteByBooking(ctx, bookingID); err != nil {
			log.Printf("Failed to delete chat for booking %s: %v", bookingID, err)
		}
	}

	if err := uc.subRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if user.IsMechanic() {
		if err := uc.profileRepo.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
	}
	if err := uc.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	if err := uc.authClient.DeleteUser(ctx, userID); err != nil {
		log.Printf("Failed to delete auth account for %s: %v", userID, err)
	}

	return nil
}

func (uc *AdminUseCase) ListUsers(ctx context.Context, role string, page, pageSize int) ([]*entity.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return uc.userRepo.ListByRole(ctx, role, pageSize, (page-1)*pageSize)
}

// Stats is the admin dashboard rollup.
type Stats struct {
	PendingBookings  int   `json:"pending_bookings"`
	PendingMechanics int   `json:"pending_mechanics"`
	RevenueCents     int64 `json:"revenue_cents"`
}

func (uc *AdminUseCase) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	pending, err := uc.bookingRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	stats.PendingBookings = len(pending)

	mechanics, err := uc.userRepo.ListUnapprovedMechanics(ctx)
	if err != nil {
		return nil, err
	}
	stats.PendingMechanics = len(mechanics)

	subs, err := uc.subRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		stats.RevenueCents += sub.AmountPaid
	}

	return stats, nil
}
