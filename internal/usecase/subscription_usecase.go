package usecase

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/internal/domain/service"
	"roadmech/pkg/errors"
)

type SubscriptionUseCase struct {
	subRepo     repository.SubscriptionRepository
	userRepo    repository.UserRepository
	bookingRepo repository.BookingRepository
	payment     service.PaymentService
}

func NewSubscriptionUseCase(
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	payment service.PaymentService,
) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		subRepo:     subRepo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		payment:     payment,
	}
}

// Resolve computes the effective entitlement for a user. Expired or
// cancelled subscriptions fall through to the basic tier; nothing in
// storage is mutated on the way.
func (uc *SubscriptionUseCase) Resolve(ctx context.Context, userID string) (*entity.Entitlement, error) {
	now := time.Now()

	sub, err := uc.subRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sub == nil || !sub.IsCurrent(now) {
		active, err := uc.bookingRepo.CountActiveByCustomer(ctx, userID)
		if err != nil {
			return nil, err
		}

		features := entity.BasicFeatures()
		remaining := features.BookingLimit - active
		if remaining < 0 {
			remaining = 0
		}
		return &entity.Entitlement{
			Plan:              entity.PlanNone,
			Features:          features,
			BookingsRemaining: remaining,
		}, nil
	}

	features := entity.PlanFeatures(sub.Plan)

	towingLeft := 0
	if features.FreeTowing > 0 {
		used, err := uc.bookingRepo.CountFreeTowingSince(ctx, userID, sub.StartDate)
		if err != nil {
			return nil, err
		}
		towingLeft = features.FreeTowing - used
		if towingLeft < 0 {
			towingLeft = 0
		}
	}

	return &entity.Entitlement{
		Plan:              sub.Plan,
		Features:          features,
		FreeTowingLeft:    towingLeft,
		ActiveSince:       &sub.StartDate,
		ExpiresAt:         &sub.ExpiresAt,
		BookingsRemaining: -1,
	}, nil
}

// Subscribe charges the plan price and activates the subscription. An
// existing active subscription is replaced, not stacked.
func (uc *SubscriptionUseCase) Subscribe(ctx context.Context, userID, plan string) (*entity.Subscription, error) {
	if plan != entity.PlanMonthly && plan != entity.PlanYearly {
		return nil, errors.BadRequest("Plan must be monthly or yearly", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsMechanic() {
		return nil, errors.Forbidden("Mechanics cannot subscribe to customer plans", nil)
	}

	amount := entity.PlanPrice(plan)
	orderID := uuid.New().String()

	charge, err := uc.payment.Charge(ctx, service.ChargeRequest{
		OrderID:     orderID,
		Amount:      amount,
		Description: "RoadMech " + plan + " subscription",
		CustomerID:  userID,
		Email:       user.Email,
	})
	if err != nil {
		return nil, err
	}
	if charge.Status != "succeeded" {
		return nil, errors.ExternalService("Subscription payment was not completed", nil)
	}

	if existing, err := uc.subRepo.GetActiveByUser(ctx, userID); err == nil && existing != nil {
		existing.Status = entity.SubscriptionCancelled
		if err := uc.subRepo.Update(ctx, existing); err != nil {
			log.Printf("Failed to cancel previous subscription %s: %v", existing.ID, err)
		}
	}

	now := time.Now()
	sub := &entity.Subscription{
		ID:            orderID,
		UserID:        userID,
		Plan:          plan,
		Status:        entity.SubscriptionActive,
		Features:      entity.PlanFeatures(plan),
		AmountPaid:    amount,
		TransactionID: charge.TransactionID,
		StartDate:     now,
		ExpiresAt:     now.Add(entity.PlanDuration(plan)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	uc.cachePremium(ctx, user, sub)

	return sub, nil
}

// Grant activates a plan without charging, for admin-issued comps.
func (uc *SubscriptionUseCase) Grant(ctx context.Context, userID, plan string) (*entity.Subscription, error) {
	if plan != entity.PlanMonthly && plan != entity.PlanYearly {
		return nil, errors.BadRequest("Plan must be monthly or yearly", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsMechanic() {
		return nil, errors.Forbidden("Mechanics cannot hold customer plans", nil)
	}

	if existing, err := uc.subRepo.GetActiveByUser(ctx, userID); err == nil && existing != nil {
		existing.Status = entity.SubscriptionCancelled
		if err := uc.subRepo.Update(ctx, existing); err != nil {
			log.Printf("Failed to cancel previous subscription %s: %v", existing.ID, err)
		}
	}

	now := time.Now()
	sub := &entity.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		Plan:      plan,
		Status:    entity.SubscriptionActive,
		Features:  entity.PlanFeatures(plan),
		StartDate: now,
		ExpiresAt: now.Add(entity.PlanDuration(plan)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	uc.cachePremium(ctx, user, sub)

	return sub, nil
}

// SetStatus force-updates a subscription's lifecycle state, then
// reconciles the owner's cached flags against whatever is active now.
func (uc *SubscriptionUseCase) SetStatus(ctx context.Context, subscriptionID, status string) (*entity.Subscription, error) {
	switch status {
	case entity.SubscriptionActive, entity.SubscriptionCancelled, entity.SubscriptionExpired:
	default:
		return nil, errors.BadRequest("Unknown subscription status", nil)
	}

	sub, err := uc.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub.Status = status
	sub.UpdatedAt = time.Now()
	if err := uc.subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	active, err := uc.subRepo.GetActiveByUser(ctx, sub.UserID)
	if err == nil && active != nil && active.IsCurrent(time.Now()) {
		if user, err := uc.userRepo.GetByID(ctx, sub.UserID); err == nil {
			uc.cachePremium(ctx, user, active)
		}
	} else {
		uc.clearPremium(ctx, sub.UserID)
	}

	return sub, nil
}

// Cancel takes effect immediately: the subscription stops resolving and
// the cached user flags are cleared.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, userID string) (*entity.Subscription, error) {
	sub, err := uc.subRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.IsCurrent(time.Now()) {
		return nil, errors.NotFound("Active subscription", nil)
	}

	sub.Status = entity.SubscriptionCancelled
	if err := uc.subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	uc.clearPremium(ctx, userID)

	return sub, nil
}

// cachePremium writes the user's premium snapshot from the subscription's
// feature bundle. Failures are logged: the subscription document is the
// source of truth, the snapshot is a read optimization.
func (uc *SubscriptionUseCase) cachePremium(ctx context.Context, user *entity.User, sub *entity.Subscription) {
	user.IsPremium = true
	user.PremiumTier = sub.Plan
	user.PremiumFeatures = entity.PremiumFeatures{
		PriorityService:     sub.Features.PriorityService,
		Tracking:            sub.Features.Tracking,
		Discounts:           sub.Features.Discounts,
		EmergencyAssistance: sub.Features.EmergencyAssistance,
		FreeTowing:          sub.Features.FreeTowing,
		MaintenanceChecks:   sub.Features.MaintenanceChecks,
	}
	if err := uc.userRepo.Update(ctx, user); err != nil {
		log.Printf("Failed to cache premium features for %s: %v", user.ID, err)
	}
}

func (uc *SubscriptionUseCase) clearPremium(ctx context.Context, userID string) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return
	}
	user.IsPremium = false
	user.PremiumTier = entity.PlanNone
	user.PremiumFeatures = entity.PremiumFeatures{}
	if err := uc.userRepo.Update(ctx, user); err != nil {
		log.Printf("Failed to clear premium cache for %s: %v", userID, err)
	}
}

func (uc *SubscriptionUseCase) Current(ctx context.Context, userID string) (*entity.Subscription, error) {
	sub, err := uc.subRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.IsCurrent(time.Now()) {
		return nil, errors.NotFound("Active subscription", nil)
	}
	return sub, nil
}

func (uc *SubscriptionUseCase) History(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	return uc.subRepo.ListByUser(ctx, userID)
}

func (uc *SubscriptionUseCase) All(ctx context.Context) ([]*entity.Subscription, error) {
	return uc.subRepo.ListAll(ctx)
}
