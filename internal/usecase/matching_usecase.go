package usecase

import (
	"context"
	"sort"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/pkg/errors"
	"roadmech/pkg/geo"
)

const (
	matchRadiusMeters  = 10000.0
	maxMechanicMatches = 10
	maxNearbyBookings  = 5
)

type MatchingUseCase struct {
	profileRepo repository.MechanicProfileRepository
	userRepo    repository.UserRepository
	bookingRepo repository.BookingRepository
}

func NewMatchingUseCase(
	profileRepo repository.MechanicProfileRepository,
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
) *MatchingUseCase {
	return &MatchingUseCase{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
	}
}

// MechanicMatch is a candidate mechanic with the distance to the breakdown.
type MechanicMatch struct {
	User           *entity.User            `json:"user"`
	Profile        *entity.MechanicProfile `json:"profile"`
	DistanceMeters float64                 `json:"distance_meters"`
}

// NearbyBooking is a pending booking visible to a mechanic.
type NearbyBooking struct {
	Booking        *entity.Booking `json:"booking"`
	DistanceMeters float64         `json:"distance_meters"`
}

// FindMechanics returns up to 10 approved, available mechanics within 10km
// of the breakdown, nearest first. Distance filtering happens here because
// the store cannot index it.
func (uc *MatchingUseCase) FindMechanics(ctx context.Context, point geo.Point, problemType string) ([]*MechanicMatch, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if problemType != "" && !entity.ValidProblemType(problemType) {
		return nil, errors.BadRequest("Unknown problem type: "+problemType, nil)
	}

	profiles, err := uc.profileRepo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*MechanicMatch
	for _, profile := range profiles {
		if !profile.HasSpecialization(problemType) {
			continue
		}

		user, err := uc.userRepo.GetByID(ctx, profile.UserID)
		if err != nil {
			continue
		}
		if !user.IsApproved || user.Location.Point.IsZero() {
			continue
		}

		dist := geo.Distance(point, user.Location.Point)
		if dist > matchRadiusMeters {
			continue
		}

		matches = append(matches, &MechanicMatch{
			User:           user,
			Profile:        profile,
			DistanceMeters: dist,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})
	if len(matches) > maxMechanicMatches {
		matches = matches[:maxMechanicMatches]
	}

	return matches, nil
}

// NearbyPendingBookings shows a mechanic the closest open jobs, capped at 5.
func (uc *MatchingUseCase) NearbyPendingBookings(ctx context.Context, mechanicID string) ([]*NearbyBooking, error) {
	mechanic, err := uc.userRepo.GetByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !mechanic.IsMechanic() {
		return nil, errors.Forbidden("Only mechanics can browse open bookings", nil)
	}
	if !mechanic.IsApproved {
		return nil, errors.Forbidden("Account pending approval", nil)
	}
	if mechanic.Location.Point.IsZero() {
		return nil, errors.BadRequest("Set your location to see nearby bookings", nil)
	}

	pending, err := uc.bookingRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	var nearby []*NearbyBooking
	for _, booking := range pending {
		dist := geo.Distance(mechanic.Location.Point, booking.Location.Point)
		if dist > matchRadiusMeters {
			continue
		}
		nearby = append(nearby, &NearbyBooking{
			Booking:        booking,
			DistanceMeters: dist,
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	if len(nearby) > maxNearbyBookings {
		nearby = nearby[:maxNearbyBookings]
	}

	return nearby, nil
}
