package usecase

import (
	"context"
	"io"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/internal/domain/service"
	"roadmech/pkg/errors"
)

type UserUseCase struct {
	userRepo    repository.UserRepository
	profileRepo repository.MechanicProfileRepository
	fileService service.FileUploadService
}

func NewUserUseCase(
	userRepo repository.UserRepository,
	profileRepo repository.MechanicProfileRepository,
	fileService service.FileUploadService,
) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		fileService: fileService,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	Name     string
	Phone    string
	Location *entity.Location
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Location != nil {
		if err := input.Location.Point.Validate(); err != nil {
			return nil, err
		}
		user.Location = *input.Location
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) UploadProfileImage(ctx context.Context, userID string, file io.Reader, contentType string) (*entity.User, error) {
	if contentType != "image/jpeg" && contentType != "image/jpg" && contentType != "image/png" {
		return nil, errors.BadRequest("Profile image must be JPEG or PNG", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := uc.fileService.UploadFile(ctx, file, contentType, "profiles", true)
	if err != nil {
		return nil, errors.ExternalService("Failed to upload profile image", err)
	}

	user.ProfileImage = url
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetMechanic returns the public view of a mechanic: user plus profile.
func (uc *UserUseCase) GetMechanic(ctx context.Context, userID string) (*entity.User, *entity.MechanicProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsMechanic() {
		return nil, nil, errors.NotFound("Mechanic", nil)
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}
