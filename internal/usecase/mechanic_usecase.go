package usecase

import (
	"context"
	"io"
	"time"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/internal/domain/service"
	"roadmech/pkg/errors"
)

type MechanicUseCase struct {
	userRepo    repository.UserRepository
	profileRepo repository.MechanicProfileRepository
	bookingRepo repository.BookingRepository
	fileService service.FileUploadService
}

func NewMechanicUseCase(
	userRepo repository.UserRepository,
	profileRepo repository.MechanicProfileRepository,
	bookingRepo repository.BookingRepository,
	fileService service.FileUploadService,
) *MechanicUseCase {
	return &MechanicUseCase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		bookingRepo: bookingRepo,
		fileService: fileService,
	}
}

func (uc *MechanicUseCase) GetOwnProfile(ctx context.Context, mechanicID string) (*entity.MechanicProfile, error) {
	return uc.profileRepo.GetByUserID(ctx, mechanicID)
}

type UpdateMechanicProfileInput struct {
	Specialization []string
	Experience     *int
	HourlyRate     *float64
	Certifications []entity.Certification
}

func (uc *MechanicUseCase) UpdateProfile(ctx context.Context, mechanicID string, input UpdateMechanicProfileInput) (*entity.MechanicProfile, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}

	if input.Specialization != nil {
		for _, s := range input.Specialization {
			if !entity.ValidProblemType(s) {
				return nil, errors.BadRequest("Unknown specialization: "+s, nil)
			}
		}
		profile.Specialization = input.Specialization
	}
	if input.Experience != nil {
		profile.Experience = *input.Experience
	}
	if input.HourlyRate != nil {
		if *input.HourlyRate <= 0 {
			return nil, errors.BadRequest("Hourly rate must be positive", nil)
		}
		profile.HourlyRate = *input.HourlyRate
	}
	if input.Certifications != nil {
		profile.Certifications = input.Certifications
	}

	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetAvailability toggles whether the mechanic shows up in matching.
func (uc *MechanicUseCase) SetAvailability(ctx context.Context, mechanicID string, available bool) (*entity.MechanicProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if available && !user.IsApproved {
		return nil, errors.Forbidden("Account pending approval", nil)
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}

	profile.Availability = available
	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UploadDocument stores a private verification document and appends its
// URL to the profile for admin review.
func (uc *MechanicUseCase) UploadDocument(ctx context.Context, mechanicID string, file io.Reader, contentType string) (*entity.MechanicProfile, error) {
	if contentType != "image/jpeg" && contentType != "image/jpg" &&
		contentType != "image/png" && contentType != "application/pdf" {
		return nil, errors.BadRequest("Document must be an image or PDF", nil)
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}

	url, err := uc.fileService.UploadFile(ctx, file, contentType, "documents", false)
	if err != nil {
		return nil, errors.ExternalService("Failed to upload document", err)
	}

	profile.Documents = append(profile.Documents, url)
	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (uc *MechanicUseCase) AssignedBookings(ctx context.Context, mechanicID string) ([]*entity.Booking, error) {
	return uc.bookingRepo.ListByMechanic(ctx, mechanicID)
}

// Earnings summarizes paid work for the mechanic's dashboard.
type Earnings struct {
	TotalCents     int64   `json:"total_cents"`
	ThisMonthCents int64   `json:"this_month_cents"`
	CompletedJobs  int     `json:"completed_jobs"`
	AverageRating  float64 `json:"average_rating"`
}

func (uc *MechanicUseCase) Earnings(ctx context.Context, mechanicID string) (*Earnings, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}

	bookings, err := uc.bookingRepo.ListByMechanic(ctx, mechanicID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	earnings := &Earnings{AverageRating: profile.Rating}
	for _, b := range bookings {
		if b.Status != entity.BookingCompleted || b.Payment.Status != entity.PaymentCompleted {
			continue
		}
		earnings.CompletedJobs++
		earnings.TotalCents += b.Payment.Amount
		if b.CompletedAt != nil && !b.CompletedAt.Before(monthStart) {
			earnings.ThisMonthCents += b.Payment.Amount
		}
	}

	return earnings, nil
}
