package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadmech/internal/domain/entity"
	"roadmech/pkg/errors"
	"roadmech/pkg/geo"
)

type bookingFixture struct {
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	bookings *fakeBookingRepo
	chats    *fakeChatRepo
	subs     *fakeSubscriptionRepo
	payment  *fakePaymentService
	files    *fakeFileService
	notifier *recordingNotifier
	uc       *BookingUseCase
	subUC    *SubscriptionUseCase
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		users:    newFakeUserRepo(),
		profiles: newFakeProfileRepo(),
		bookings: newFakeBookingRepo(),
		chats:    newFakeChatRepo(),
		subs:     newFakeSubscriptionRepo(),
		payment:  &fakePaymentService{},
		files:    &fakeFileService{},
		notifier: &recordingNotifier{},
	}
	f.subUC = NewSubscriptionUseCase(f.subs, f.users, f.bookings, f.payment)
	f.uc = NewBookingUseCase(f.bookings, f.users, f.profiles, f.chats, f.subUC, f.payment, f.files, f.notifier)
	return f
}

func (f *bookingFixture) addCustomer(id string) *entity.User {
	user := &entity.User{
		ID:         id,
		Name:       "Customer " + id,
		Email:      id + "@example.com",
		Role:       entity.RoleCustomer,
		IsApproved: true,
		CreatedAt:  time.Now(),
	}
	f.users.Create(context.Background(), user)
	return user
}

func (f *bookingFixture) addMechanic(id string, available bool) *entity.User {
	user := &entity.User{
		ID:         id,
		Name:       "Mechanic " + id,
		Email:      id + "@example.com",
		Role:       entity.RoleMechanic,
		IsApproved: true,
		Location: entity.Location{
			Point: geo.Point{Latitude: 40.0, Longitude: -74.0},
		},
		CreatedAt: time.Now(),
	}
	f.users.Create(context.Background(), user)
	f.profiles.Create(context.Background(), &entity.MechanicProfile{
		ID:           "profile-" + id,
		UserID:       id,
		Availability: available,
		HourlyRate:   50,
	})
	return user
}

func (f *bookingFixture) activateYearly(userID string) {
	now := time.Now()
	f.subs.Create(context.Background(), &entity.Subscription{
		ID:        "sub-" + userID,
		UserID:    userID,
		Plan:      entity.PlanYearly,
		Status:    entity.SubscriptionActive,
		Features:  entity.PlanFeatures(entity.PlanYearly),
		StartDate: now.Add(-time.Hour),
		ExpiresAt: now.Add(300 * 24 * time.Hour),
		CreatedAt: now,
	})
}

func validBookingInput() CreateBookingInput {
	return CreateBookingInput{
		ProblemType: "flat-tire",
		Description: "rear wheel",
		Location: entity.Location{
			Point:   geo.Point{Latitude: 40.01, Longitude: -74.01},
			Address: "5th and Main",
		},
	}
}

func towingBookingInput() CreateBookingInput {
	input := validBookingInput()
	input.RequiresTowing = true
	input.TowingDrop = &entity.Location{
		Point:   geo.Point{Latitude: 40.05, Longitude: -74.05},
		Address: "Hansen's Bike Shop",
	}
	return input
}

func TestCreateBookingEnforcesBasicLimit(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")

	_, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), "c1", validBookingInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestCreateBookingCancelledSlotIsReusable(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")

	first, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	_, err = f.uc.Cancel(context.Background(), first.ID, "c1")
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), "c1", validBookingInput())
	assert.NoError(t, err)
}

func TestCreateBookingPremiumIsUnlimitedAndDiscounted(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.activateYearly("c1")

	for i := 0; i < 5; i++ {
		booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
		require.NoError(t, err)
		assert.True(t, booking.Payment.DiscountApplied)
		assert.Equal(t, 15, booking.Payment.DiscountPercent)
	}
}

func TestCreateBookingFreeTowingAllowance(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.activateYearly("c1")

	input := towingBookingInput()

	first, err := f.uc.Create(context.Background(), "c1", input)
	require.NoError(t, err)
	assert.True(t, first.Payment.FreeTowingUsed)
	// Pickup defaults to the breakdown location.
	assert.Equal(t, first.Location.Point, first.Towing.PickupLocation.Point)

	second, err := f.uc.Create(context.Background(), "c1", input)
	require.NoError(t, err)
	assert.True(t, second.Payment.FreeTowingUsed)

	// Yearly grants two free tows; the third is paid.
	third, err := f.uc.Create(context.Background(), "c1", input)
	require.NoError(t, err)
	assert.False(t, third.Payment.FreeTowingUsed)
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	input := validBookingInput()
	input.ProblemType = "time-travel"
	_, err := f.uc.Create(context.Background(), "c1", input)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	input = validBookingInput()
	input.Location.Point = geo.Point{}
	_, err = f.uc.Create(context.Background(), "c1", input)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	// Mechanics cannot book service for themselves.
	_, err = f.uc.Create(context.Background(), "m1", validBookingInput())
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestAcceptIsFirstComeFirstServed(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)
	f.addMechanic("m2", true)

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	won, err := f.uc.Accept(context.Background(), booking.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookingAccepted, won.Status)
	assert.Equal(t, "m1", won.MechanicID)

	_, err = f.uc.Accept(context.Background(), booking.ID, "m2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))

	// The winner keeps the job.
	current, _ := f.uc.GetBooking(context.Background(), booking.ID)
	assert.Equal(t, "m1", current.MechanicID)
}

func TestAcceptRequiresApprovalAndAvailability(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	unavailable := f.addMechanic("m1", false)
	unapproved := f.addMechanic("m2", true)
	unapproved.IsApproved = false
	f.users.Update(context.Background(), unapproved)

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	_, err = f.uc.Accept(context.Background(), booking.ID, unavailable.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = f.uc.Accept(context.Background(), booking.ID, unapproved.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestStatusTransitions(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	// Customer cannot jump to completed.
	_, err = f.uc.ChangeStatus(context.Background(), booking.ID, "c1", entity.BookingCompleted)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = f.uc.Accept(context.Background(), booking.ID, "m1")
	require.NoError(t, err)

	// Skipping in-progress is rejected.
	_, err = f.uc.Complete(context.Background(), booking.ID, "m1", 10000)
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))

	_, err = f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingInProgress)
	require.NoError(t, err)

	// No cancelling once work started.
	_, err = f.uc.Cancel(context.Background(), booking.ID, "c1")
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))

	done, err := f.uc.Complete(context.Background(), booking.ID, "m1", 10000)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	assert.Contains(t, f.notifier.bookingEvents, booking.ID+":"+entity.BookingCompleted)
}

func TestCancelRefundsCompletedPayment(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	// Simulate an already-paid pending booking (deposit model).
	stored, _ := f.bookings.GetByID(context.Background(), booking.ID)
	stored.Payment.Status = entity.PaymentCompleted
	stored.Payment.TransactionID = "txn-dep"
	f.bookings.Update(context.Background(), stored)

	cancelled, err := f.uc.Cancel(context.Background(), booking.ID, "c1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookingCancelled, cancelled.Status)
	assert.Contains(t, f.payment.refunds, "txn-dep")

	final, _ := f.bookings.GetByID(context.Background(), booking.ID)
	assert.Equal(t, entity.PaymentRefunded, final.Payment.Status)
}

func TestPayRequiresCompletionAndAppliesDiscount(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)
	f.activateYearly("c1")

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	_, err = f.uc.Pay(context.Background(), booking.ID, "c1", 0)
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))

	f.uc.Accept(context.Background(), booking.ID, "m1")
	f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingInProgress)
	f.uc.Complete(context.Background(), booking.ID, "m1", 10000)

	paid, err := f.uc.Pay(context.Background(), booking.ID, "c1", 0)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCompleted, paid.Payment.Status)
	// 15% off the yearly plan.
	assert.Equal(t, int64(8500), paid.Payment.Amount)

	// Double payment is rejected.
	_, err = f.uc.Pay(context.Background(), booking.ID, "c1", 0)
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))
}

func TestPayChargesTowingUnlessFree(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	booking, err := f.uc.Create(context.Background(), "c1", towingBookingInput())
	require.NoError(t, err)
	assert.False(t, booking.Payment.FreeTowingUsed)

	f.uc.Accept(context.Background(), booking.ID, "m1")
	f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingInProgress)
	f.uc.Complete(context.Background(), booking.ID, "m1", 10000)

	paid, err := f.uc.Pay(context.Background(), booking.ID, "c1", 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), paid.Payment.Amount)
}

func TestRateOnceAfterPaidCompletion(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	booking, _ := f.uc.Create(context.Background(), "c1", validBookingInput())
	f.uc.Accept(context.Background(), booking.ID, "m1")
	f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingInProgress)
	f.uc.Complete(context.Background(), booking.ID, "m1", 10000)

	// Unpaid bookings cannot be rated.
	_, err := f.uc.Rate(context.Background(), booking.ID, "c1", 5, "great")
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))

	f.uc.Pay(context.Background(), booking.ID, "c1", 0)

	rated, err := f.uc.Rate(context.Background(), booking.ID, "c1", 4, "solid work")
	require.NoError(t, err)
	assert.True(t, rated.Payment.Rated)

	profile, _ := f.profiles.GetByUserID(context.Background(), "m1")
	assert.Equal(t, 4.0, profile.Rating)
	require.Len(t, profile.Reviews, 1)

	// Second rating is rejected.
	_, err = f.uc.Rate(context.Background(), booking.ID, "c1", 1, "changed my mind")
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))
}

func TestRatingRecomputesMean(t *testing.T) {
	f := newBookingFixture()
	f.addMechanic("m1", true)
	f.addCustomer("c1")
	f.addCustomer("c2")

	for i, customer := range []string{"c1", "c2"} {
		booking, _ := f.uc.Create(context.Background(), customer, validBookingInput())
		f.uc.Accept(context.Background(), booking.ID, "m1")
		f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingInProgress)
		f.uc.Complete(context.Background(), booking.ID, "m1", 10000)
		f.uc.Pay(context.Background(), booking.ID, customer, 0)
		f.uc.Rate(context.Background(), booking.ID, customer, 2+i*3, "")
	}

	profile, _ := f.profiles.GetByUserID(context.Background(), "m1")
	assert.InDelta(t, 3.5, profile.Rating, 0.0001)
}

func TestUpdateTowingStatus(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	booking, _ := f.uc.Create(context.Background(), "c1", towingBookingInput())
	f.uc.Accept(context.Background(), booking.ID, "m1")

	// Only the assigned mechanic drives the tow.
	_, err := f.uc.UpdateTowingStatus(context.Background(), booking.ID, "c1", "en-route")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	updated, err := f.uc.UpdateTowingStatus(context.Background(), booking.ID, "m1", "en-route")
	require.NoError(t, err)
	assert.Equal(t, "en-route", updated.Towing.Status)
	assert.Contains(t, f.notifier.towingEvents, booking.ID+":en-route")
}

func TestGetBookingAuthorization(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addCustomer("stranger")
	admin := f.addCustomer("root")
	admin.Role = entity.RoleAdmin
	f.users.Update(context.Background(), admin)

	booking, _ := f.uc.Create(context.Background(), "c1", validBookingInput())

	_, err := f.uc.Get(context.Background(), booking.ID, "stranger")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = f.uc.Get(context.Background(), booking.ID, "c1")
	assert.NoError(t, err)

	_, err = f.uc.Get(context.Background(), booking.ID, "root")
	assert.NoError(t, err)
}

func TestAcceptCreatesChat(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	_, err = f.chats.GetByBookingID(context.Background(), booking.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	_, err = f.uc.Accept(context.Background(), booking.ID, "m1")
	require.NoError(t, err)

	chat, err := f.chats.GetByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", chat.CustomerID)
	assert.Equal(t, "m1", chat.MechanicID)
}

func TestCreateBookingEmergencyRequiresEntitlement(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addCustomer("c2")
	f.activateYearly("c2")

	input := validBookingInput()
	input.Emergency = true

	// Emergency assistance is a yearly-plan perk.
	_, err := f.uc.Create(context.Background(), "c1", input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	booking, err := f.uc.Create(context.Background(), "c2", input)
	require.NoError(t, err)
	assert.True(t, booking.Emergency)
	assert.Equal(t, 2, booking.Priority)
}

func TestCreateBookingPriorityTiers(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("basic")
	f.addCustomer("premium")
	f.activateYearly("premium")

	booking, err := f.uc.Create(context.Background(), "basic", validBookingInput())
	require.NoError(t, err)
	assert.Equal(t, 0, booking.Priority)
	assert.False(t, booking.Emergency)

	booking, err = f.uc.Create(context.Background(), "premium", validBookingInput())
	require.NoError(t, err)
	assert.Equal(t, 1, booking.Priority)
}

func TestCreateBookingTowingValidation(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")

	input := validBookingInput()
	input.RequiresTowing = true
	_, err := f.uc.Create(context.Background(), "c1", input)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	input = towingBookingInput()
	input.TowingDrop.Point = geo.Point{Latitude: 200, Longitude: 500}
	_, err = f.uc.Create(context.Background(), "c1", input)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	input = towingBookingInput()
	input.TowingPickup = &entity.Location{Point: geo.Point{Latitude: -91, Longitude: 10}}
	_, err = f.uc.Create(context.Background(), "c1", input)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	// Nothing was persisted by the rejected attempts.
	mine, _ := f.uc.ListByCustomer(context.Background(), "c1")
	assert.Empty(t, mine)

	booking, err := f.uc.Create(context.Background(), "c1", towingBookingInput())
	require.NoError(t, err)
	assert.Equal(t, 40.05, booking.Towing.DropLocation.Point.Latitude)
}

func TestCompleteRecordsServiceAmount(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)

	booking, _ := f.uc.Create(context.Background(), "c1", validBookingInput())
	f.uc.Accept(context.Background(), booking.ID, "m1")
	f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingInProgress)

	// The plain status endpoint cannot complete, it has no amount.
	_, err := f.uc.ChangeStatus(context.Background(), booking.ID, "m1", entity.BookingCompleted)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = f.uc.Complete(context.Background(), booking.ID, "m1", 0)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	done, err := f.uc.Complete(context.Background(), booking.ID, "m1", 7500)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), done.Payment.Amount)
	assert.Equal(t, entity.PaymentPending, done.Payment.Status)
}

func TestCreateBookingKeepsImages(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")

	input := validBookingInput()
	input.Images = []string{"https://storage.example.com/bookings/file-1"}

	booking, err := f.uc.Create(context.Background(), "c1", input)
	require.NoError(t, err)
	assert.Equal(t, input.Images, booking.Images)

	stored, _ := f.bookings.GetByID(context.Background(), booking.ID)
	assert.Equal(t, input.Images, stored.Images)
}

func TestUploadImageChecksContentType(t *testing.T) {
	f := newBookingFixture()

	_, err := f.uc.UploadImage(context.Background(), strings.NewReader("data"), "text/plain")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	url, err := f.uc.UploadImage(context.Background(), strings.NewReader("data"), "image/png")
	require.NoError(t, err)
	assert.Contains(t, url, "/bookings/")
	assert.Len(t, f.files.uploads, 1)
}

func TestCancelKeepsPremiumCounterUntouched(t *testing.T) {
	f := newBookingFixture()
	customer := f.addCustomer("c1")
	f.activateYearly("c1")

	// A leftover counter from before the upgrade must not go negative or
	// hand out extra basic slots on cancel.
	customer.BasicBookingsUsed = 1
	f.users.Update(context.Background(), customer)

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	_, err = f.uc.Cancel(context.Background(), booking.ID, "c1")
	require.NoError(t, err)

	after, _ := f.users.GetByID(context.Background(), "c1")
	assert.Equal(t, 1, after.BasicBookingsUsed)
}

func TestChangeStatusAdminAssignmentNeedsMechanic(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addMechanic("m1", true)
	f.users.Create(context.Background(), &entity.User{
		ID: "a1", Role: entity.RoleAdmin, CreatedAt: time.Now(),
	})

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	// An admin is not a mechanic; without a mechanic id there is nobody
	// to assign.
	_, err = f.uc.ChangeStatus(context.Background(), booking.ID, "a1", entity.BookingAccepted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	assigned, err := f.uc.SelectMechanic(context.Background(), booking.ID, "a1", "m1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookingAccepted, assigned.Status)
	assert.Equal(t, "m1", assigned.MechanicID)
}

func TestSelectMechanic(t *testing.T) {
	f := newBookingFixture()
	f.addCustomer("c1")
	f.addCustomer("c2")
	f.addMechanic("m1", true)
	f.users.Create(context.Background(), &entity.User{
		ID: "a1", Role: entity.RoleAdmin, CreatedAt: time.Now(),
	})

	booking, err := f.uc.Create(context.Background(), "c1", validBookingInput())
	require.NoError(t, err)

	// Another customer cannot hand the booking out.
	_, err = f.uc.SelectMechanic(context.Background(), booking.ID, "c2", "m1")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	got, err := f.uc.SelectMechanic(context.Background(), booking.ID, "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookingAccepted, got.Status)
	assert.Equal(t, "m1", got.MechanicID)

	// Admins can assign, but the booking is no longer pending.
	_, err = f.uc.SelectMechanic(context.Background(), booking.ID, "a1", "m1")
	assert.True(t, errors.Is(err, "STATE_CONFLICT"))
}
