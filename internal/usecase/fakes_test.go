package usecase

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/service"
	"roadmech/pkg/errors"
)

// In-memory repository fakes. They mirror the conditional-write semantics
// of the real store so the state machine tests mean something.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string, limit, offset int) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, user := range r.users {
		if user.Role == role {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ListUnapprovedMechanics(ctx context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, user := range r.users {
		if user.Role == entity.RoleMechanic && !user.IsApproved {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) AdjustBasicBookingsUsed(ctx context.Context, userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	user.BasicBookingsUsed += delta
	if user.BasicBookingsUsed < 0 {
		user.BasicBookingsUsed = 0
	}
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*entity.MechanicProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*entity.MechanicProfile{}}
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *entity.MechanicProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id string) (*entity.MechanicProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, errors.NotFound("Mechanic profile", nil)
	}
	cp := *profile
	return &cp, nil
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*entity.MechanicProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.UserID == userID {
			cp := *profile
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Mechanic profile", nil)
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *entity.MechanicProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, profile := range r.profiles {
		if profile.UserID == userID {
			delete(r.profiles, id)
		}
	}
	return nil
}

func (r *fakeProfileRepo) ListAvailable(ctx context.Context) ([]*entity.MechanicProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.MechanicProfile
	for _, profile := range r.profiles {
		if profile.Availability {
			cp := *profile
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) AppendReview(ctx context.Context, profileID string, review entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[profileID]
	if !ok {
		return errors.NotFound("Mechanic profile", nil)
	}
	profile.Reviews = append(profile.Reviews, review)
	sum := 0
	for _, rv := range profile.Reviews {
		sum += rv.Rating
	}
	profile.Rating = float64(sum) / float64(len(profile.Reviews))
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*entity.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]*entity.Booking{}}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("Booking", nil)
	}
	cp := *booking
	return &cp, nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) listWhere(match func(*entity.Booking) bool) []*entity.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, booking := range r.bookings {
		if match(booking) {
			cp := *booking
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]*entity.Booking, error) {
	return r.listWhere(func(b *entity.Booking) bool { return b.CustomerID == customerID }), nil
}

func (r *fakeBookingRepo) ListByMechanic(ctx context.Context, mechanicID string) ([]*entity.Booking, error) {
	return r.listWhere(func(b *entity.Booking) bool { return b.MechanicID == mechanicID }), nil
}

func (r *fakeBookingRepo) ListPending(ctx context.Context) ([]*entity.Booking, error) {
	return r.listWhere(func(b *entity.Booking) bool { return b.Status == entity.BookingPending }), nil
}

func (r *fakeBookingRepo) CountActiveByCustomer(ctx context.Context, customerID string) (int, error) {
	return len(r.listWhere(func(b *entity.Booking) bool {
		return b.CustomerID == customerID && b.Status != entity.BookingCancelled
	})), nil
}

func (r *fakeBookingRepo) CountFreeTowingSince(ctx context.Context, customerID string, since time.Time) (int, error) {
	return len(r.listWhere(func(b *entity.Booking) bool {
		return b.CustomerID == customerID &&
			b.Towing.Required &&
			b.Payment.FreeTowingUsed &&
			!b.CreatedAt.Before(since)
	})), nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id, from, to string) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("Booking", nil)
	}
	if booking.Status != from {
		return nil, errors.StateConflict("Booking is "+booking.Status+", expected "+from, nil)
	}
	booking.Status = to
	if to == entity.BookingCompleted {
		now := time.Now()
		booking.CompletedAt = &now
	}
	cp := *booking
	return &cp, nil
}

func (r *fakeBookingRepo) Complete(ctx context.Context, id string, amount int64) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("Booking", nil)
	}
	if booking.Status != entity.BookingInProgress {
		return nil, errors.StateConflict("Booking is "+booking.Status+", expected "+entity.BookingInProgress, nil)
	}
	now := time.Now()
	booking.Status = entity.BookingCompleted
	booking.CompletedAt = &now
	booking.Payment.Amount = amount
	cp := *booking
	return &cp, nil
}

func (r *fakeBookingRepo) AssignMechanic(ctx context.Context, id, mechanicID string) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("Booking", nil)
	}
	if booking.Status != entity.BookingPending {
		return nil, errors.StateConflict("Booking already "+booking.Status, nil)
	}
	booking.Status = entity.BookingAccepted
	booking.MechanicID = mechanicID
	cp := *booking
	return &cp, nil
}

func (r *fakeBookingRepo) DeleteByCustomer(ctx context.Context, customerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted []string
	for id, booking := range r.bookings {
		if booking.CustomerID == customerID {
			delete(r.bookings, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*entity.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[string]*entity.Subscription{}}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, errors.NotFound("Subscription", nil)
	}
	cp := *sub
	return &cp, nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *entity.Subscription
	for _, sub := range r.subs {
		if sub.UserID != userID || sub.Status != entity.SubscriptionActive {
			continue
		}
		if newest == nil || sub.CreatedAt.After(newest.CreatedAt) {
			newest = sub
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (r *fakeSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Subscription
	for _, sub := range r.subs {
		if sub.UserID == userID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListAll(ctx context.Context) ([]*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Subscription
	for _, sub := range r.subs {
		cp := *sub
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.subs {
		if sub.UserID == userID {
			delete(r.subs, id)
		}
	}
	return nil
}

type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    map[string]*entity.Chat{},
		messages: map[string][]*entity.Message{},
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *chat
	r.chats[chat.ID] = &cp
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	cp := *chat
	return &cp, nil
}

func (r *fakeChatRepo) GetByBookingID(ctx context.Context, bookingID string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chat := range r.chats {
		if chat.BookingID == bookingID {
			cp := *chat
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *fakeChatRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			cp := *chat
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) AddMessage(ctx context.Context, chatID string, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *message
	r.messages[chatID] = append(r.messages[chatID], &cp)
	if chat, ok := r.chats[chatID]; ok {
		chat.LastMessage = message.Content
		chat.LastMessageAt = message.CreatedAt
	}
	return nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, chatID string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]*entity.Message, 0, len(msgs))
	for _, msg := range msgs {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeChatRepo) MarkRead(ctx context.Context, chatID, readerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flipped []string
	for _, msg := range r.messages[chatID] {
		if !msg.Read && msg.SenderID != readerID {
			msg.Read = true
			flipped = append(flipped, msg.ID)
		}
	}
	return flipped, nil
}

func (r *fakeChatRepo) CountUnread(ctx context.Context, chatID, readerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, msg := range r.messages[chatID] {
		if !msg.Read && msg.SenderID != readerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeChatRepo) DeleteByBooking(ctx context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, chat := range r.chats {
		if chat.BookingID == bookingID {
			delete(r.chats, id)
			delete(r.messages, id)
		}
	}
	return nil
}

type fakePendingRepo struct {
	mu      sync.Mutex
	pending map[string]*entity.PendingRegistration
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{pending: map[string]*entity.PendingRegistration{}}
}

func (r *fakePendingRepo) Create(ctx context.Context, reg *entity.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *reg
	r.pending[reg.ID] = &cp
	return nil
}

func (r *fakePendingRepo) GetByEmail(ctx context.Context, email string) (*entity.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *entity.PendingRegistration
	for _, reg := range r.pending {
		if reg.Email != email {
			continue
		}
		if newest == nil || reg.CreatedAt.After(newest.CreatedAt) {
			newest = reg
		}
	}
	if newest == nil {
		return nil, errors.NotFound("Pending registration", nil)
	}
	cp := *newest
	return &cp, nil
}

func (r *fakePendingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
	return nil
}

// fakePaymentService approves everything and records the charges.
type fakePaymentService struct {
	mu      sync.Mutex
	charges []service.ChargeRequest
	refunds []string
	fail    bool
}

func (p *fakePaymentService) Charge(ctx context.Context, req service.ChargeRequest) (*service.ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, errors.ExternalService("Payment gateway error", nil)
	}
	p.charges = append(p.charges, req)
	return &service.ChargeResult{TransactionID: "txn-" + req.OrderID, Status: "succeeded"}, nil
}

func (p *fakePaymentService) Refund(ctx context.Context, transactionID string, amount int64) (*service.RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, transactionID)
	return &service.RefundResult{RefundID: "re-" + transactionID, Status: "succeeded"}, nil
}

// fakeFileService records uploads and hands back deterministic URLs.
type fakeFileService struct {
	mu      sync.Mutex
	uploads []string
	deleted []string
}

func (s *fakeFileService) UploadFile(ctx context.Context, file io.Reader, fileType, folder string, isPublic bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := "https://storage.example.com/" + folder + "/file-" + strconv.Itoa(len(s.uploads)+1)
	s.uploads = append(s.uploads, url)
	return url, nil
}

func (s *fakeFileService) DeleteFile(ctx context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fileURL)
	return nil
}

func (s *fakeFileService) Close() error { return nil }

// fakeFirebaseAuth hands out deterministic UIDs and tokens.
type fakeFirebaseAuth struct {
	mu      sync.Mutex
	nextUID int
	users   map[string]string // email -> uid
	deleted []string
}

func newFakeFirebaseAuth() *fakeFirebaseAuth {
	return &fakeFirebaseAuth{users: map[string]string{}}
}

func (f *fakeFirebaseAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUID++
	uid := "uid-" + email
	f.users[email] = uid
	return uid, nil
}

func (f *fakeFirebaseAuth) DeleteUser(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeFirebaseAuth) VerifyToken(ctx context.Context, token string) (string, error) {
	if len(token) > 6 && token[:6] == "token-" {
		return "uid-" + token[6:], nil
	}
	return "", errors.Unauthorized("Invalid token", nil)
}

func (f *fakeFirebaseAuth) SignInWithEmailPassword(email, password string) (string, error) {
	return "token-" + email, nil
}

func (f *fakeFirebaseAuth) SignInWithEmailPasswordWithRefresh(email, password string) (string, string, error) {
	return "token-" + email, "refresh-" + email, nil
}

func (f *fakeFirebaseAuth) RefreshIdToken(refreshToken string) (string, string, error) {
	return "token-refreshed", refreshToken, nil
}

func (f *fakeFirebaseAuth) UpdateUserPassword(ctx context.Context, uid, newPassword string) error {
	return nil
}

// fakeOTP always issues the same code.
type fakeOTP struct {
	code string
	sent []string
}

func (o *fakeOTP) Generate(ctx context.Context) (string, error) {
	return o.code, nil
}

func (o *fakeOTP) Send(ctx context.Context, phone, code string) error {
	o.sent = append(o.sent, phone)
	return nil
}

// recordingNotifier captures outbound events for assertions.
type recordingNotifier struct {
	mu            sync.Mutex
	bookingEvents []string
	towingEvents  []string
	messageEvents []string
	readEvents    []string
}

func (n *recordingNotifier) NotifyNewMessage(chat *entity.Chat, msg *entity.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messageEvents = append(n.messageEvents, msg.ID)
}

func (n *recordingNotifier) NotifyMessagesRead(chat *entity.Chat, readerID string, messageIDs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(messageIDs) > 0 {
		n.readEvents = append(n.readEvents, readerID)
	}
}

func (n *recordingNotifier) NotifyBookingStatus(booking *entity.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookingEvents = append(n.bookingEvents, booking.ID+":"+booking.Status)
}

func (n *recordingNotifier) NotifyTowingStatus(booking *entity.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.towingEvents = append(n.towingEvents, booking.ID+":"+booking.Towing.Status)
}
