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
	"roadmech/pkg/geo"
)

type AuthUseCase struct {
	userRepo     repository.UserRepository
	profileRepo  repository.MechanicProfileRepository
	pendingRepo  repository.PendingRegistrationRepository
	firebaseAuth FirebaseAuthClient
	otpService   service.OTPService
	otpExpiry    time.Duration
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	profileRepo repository.MechanicProfileRepository,
	pendingRepo repository.PendingRegistrationRepository,
	firebaseAuth FirebaseAuthClient,
	otpService service.OTPService,
	otpExpiry time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		pendingRepo:  pendingRepo,
		firebaseAuth: firebaseAuth,
		otpService:   otpService,
		otpExpiry:    otpExpiry,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Location entity.Location
}

type RegisterMechanicInput struct {
	RegisterInput
	Specialization []string
	Experience     int
	HourlyRate     float64
}

type AuthResult struct {
	User  *entity.User
	Token string
}

// Register creates a customer account. Mechanics go through the OTP flow.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	existingUser, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existingUser != nil {
		return nil, errors.BadRequest("Email already in use", nil)
	}

	if !input.Location.Point.IsZero() {
		if err := input.Location.Point.Validate(); err != nil {
			return nil, err
		}
	}

	uid, err := uc.firebaseAuth.CreateUser(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, errors.Internal("Failed to create user in authentication provider", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:              uid,
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Role:            entity.RoleCustomer,
		Location:        input.Location,
		IsApproved:      true,
		PremiumTier:     entity.PlanNone,
		PremiumFeatures: entity.PremiumFeatures{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if delErr := uc.firebaseAuth.DeleteUser(ctx, uid); delErr != nil {
			log.Printf("Failed to clean up auth user %s: %v", uid, delErr)
		}
		return nil, errors.Internal("Failed to create user record", err)
	}

	token, err := uc.firebaseAuth.SignInWithEmailPassword(input.Email, input.Password)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	token, err := uc.firebaseAuth.SignInWithEmailPassword(email, password)
	if err != nil {
		log.Printf("Login failed: %v", err)
		return nil, errors.Unauthorized("Invalid credentials", err)
	}

	uid, err := uc.firebaseAuth.VerifyToken(ctx, token)
	if err != nil {
		return nil, errors.Internal("Failed to verify token", err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// RegisterMechanic stores the signup and issues an OTP. No user or auth
// record exists until VerifyMechanicOTP succeeds.
func (uc *AuthUseCase) RegisterMechanic(ctx context.Context, input RegisterMechanicInput) error {
	existingUser, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existingUser != nil {
		return errors.BadRequest("Email already in use", nil)
	}

	if err := input.Location.Point.Validate(); err != nil {
		return err
	}
	for _, s := range input.Specialization {
		if !entity.ValidProblemType(s) {
			return errors.BadRequest("Unknown specialization: "+s, nil)
		}
	}

	code, err := uc.otpService.Generate(ctx)
	if err != nil {
		return errors.Internal("Failed to generate verification code", err)
	}

	now := time.Now()
	reg := &entity.PendingRegistration{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Password:       input.Password,
		Specialization: input.Specialization,
		Experience:     input.Experience,
		HourlyRate:     input.HourlyRate,
		Location:       input.Location,
		OTP:            code,
		ExpiresAt:      now.Add(uc.otpExpiry),
		CreatedAt:      now,
	}

	if err := uc.pendingRepo.Create(ctx, reg); err != nil {
		return err
	}

	if err := uc.otpService.Send(ctx, input.Phone, code); err != nil {
		log.Printf("Failed to send OTP to %s: %v", input.Phone, err)
	}

	return nil
}

// VerifyMechanicOTP finishes mechanic signup. A wrong or expired code
// creates nothing.
func (uc *AuthUseCase) VerifyMechanicOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	reg, err := uc.pendingRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.NotFound("Pending registration", err)
	}

	if reg.Expired(time.Now()) {
		return nil, errors.Unauthorized("Verification code expired", nil)
	}
	if reg.OTP != code {
		return nil, errors.Unauthorized("Invalid verification code", nil)
	}

	uid, err := uc.firebaseAuth.CreateUser(ctx, reg.Email, reg.Password, reg.Name)
	if err != nil {
		return nil, errors.Internal("Failed to create user in authentication provider", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:          uid,
		Name:        reg.Name,
		Email:       reg.Email,
		Phone:       reg.Phone,
		Role:        entity.RoleMechanic,
		Location:    reg.Location,
		IsApproved:  false,
		PremiumTier: entity.PlanNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if delErr := uc.firebaseAuth.DeleteUser(ctx, uid); delErr != nil {
			log.Printf("Failed to clean up auth user %s: %v", uid, delErr)
		}
		return nil, errors.Internal("Failed to create user record", err)
	}

	profile := &entity.MechanicProfile{
		ID:             uuid.New().String(),
		UserID:         uid,
		Specialization: reg.Specialization,
		Experience:     reg.Experience,
		HourlyRate:     reg.HourlyRate,
		Availability:   false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		return nil, errors.Internal("Failed to create mechanic profile", err)
	}

	if err := uc.pendingRepo.Delete(ctx, reg.ID); err != nil {
		log.Printf("Failed to delete pending registration %s: %v", reg.ID, err)
	}

	token, err := uc.firebaseAuth.SignInWithEmailPassword(reg.Email, reg.Password)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}
	return user, nil
}

// UpdateLocation persists fresh coordinates on the user document. The
// socket location stream calls this for mechanics en route.
func (uc *AuthUseCase) UpdateLocation(ctx context.Context, userID string, point geo.Point) error {
	if err := point.Validate(); err != nil {
		return errors.BadRequest("Invalid coordinates", err)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Location.Point = point
	return uc.userRepo.Update(ctx, user)
}

func (uc *AuthUseCase) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	idToken, newRefresh, err := uc.firebaseAuth.RefreshIdToken(refreshToken)
	if err != nil {
		return "", "", errors.Unauthorized("Invalid refresh token", err)
	}
	return idToken, newRefresh, nil
}
