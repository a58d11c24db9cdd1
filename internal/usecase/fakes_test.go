package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/internal/data/repository"
	"room-booking/internal/gateway/wechat"
	"room-booking/pkg/database"
	"room-booking/pkg/token"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

// store is an in-memory stand-in for Postgres. Every fake repository's WithTx
// returns itself; transaction boundaries are asserted through pgxmock.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.Session
	audits   []*entity.AuditLog
	rooms    map[uuid.UUID]*entity.Room
	bookings map[uuid.UUID]*entity.Booking
	orders   map[uuid.UUID]*entity.PaymentOrder

	// hideOverlaps makes CountOverlapping miss, so only the insert-time
	// exclusion check can catch a clash.
	hideOverlaps bool
}

func newStore() *store {
	return &store{
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[uuid.UUID]*entity.Session),
		rooms:    make(map[uuid.UUID]*entity.Room),
		bookings: make(map[uuid.UUID]*entity.Booking),
		orders:   make(map[uuid.UUID]*entity.PaymentOrder),
	}
}

func (st *store) repository() *repository.Repository {
	return &repository.Repository{
		User:         &fakeUsers{st},
		Session:      &fakeSessions{st},
		AuditLog:     &fakeAudit{st},
		Room:         &fakeRooms{st},
		Booking:      &fakeBookings{st},
		PaymentOrder: &fakeOrders{st},
	}
}

func (st *store) addRoom(pricePerHour int64, discount *float64, available bool) *entity.Room {
	st.mu.Lock()
	defer st.mu.Unlock()
	room := &entity.Room{
		Base:         entity.NewBase(time.Now()),
		Name:         "Room 5",
		PricePerHour: pricePerHour,
		Discount:     discount,
		IsAvailable:  available,
	}
	st.rooms[room.ID] = room
	c := *room
	return &c
}

func (st *store) addUser(openID string) *entity.User {
	st.mu.Lock()
	defer st.mu.Unlock()
	user := &entity.User{
		Base:      entity.NewBase(time.Now()),
		OpenID:    openID,
		Nickname:  "Mei",
		AvatarURL: "https://example.com/a.png",
		Role:      entity.RoleCustomer,
		IsActive:  true,
	}
	st.users[user.ID] = user
	c := *user
	return &c
}

func (st *store) booking(id uuid.UUID) entity.Booking {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.bookings[id]
}

func (st *store) orderByNo(no string) *entity.PaymentOrder {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, o := range st.orders {
		if o.MerchantOrderNo == no {
			c := *o
			return &c
		}
	}
	return nil
}

func (st *store) orderCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.orders)
}

// --- users

type fakeUsers struct{ st *store }

func (f *fakeUsers) WithTx(q database.Querier) repository.UserRepository { return f }

func (f *fakeUsers) InsertIfAbsent(ctx context.Context, user *entity.User) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, u := range f.st.users {
		if u.OpenID == user.OpenID {
			return false, nil
		}
	}
	c := *user
	f.st.users[user.ID] = &c
	return true, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) LockByOpenID(ctx context.Context, openID string) (*entity.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, u := range f.st.users {
		if u.OpenID == openID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, user *entity.User) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[user.ID]
	if !ok || u.IsDeleted {
		return fmt.Errorf("user %s not found or already deleted", user.ID)
	}
	if user.UnionID != nil {
		u.UnionID = user.UnionID
	}
	u.Nickname, u.AvatarURL, u.Gender = user.Nickname, user.AvatarURL, user.Gender
	u.Country, u.Province, u.City, u.Language = user.Country, user.Province, user.City, user.Language
	u.Phone, u.Email = user.Phone, user.Email
	u.UpdatedAt = user.UpdatedAt
	return nil
}

func (f *fakeUsers) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok || u.IsDeleted {
		return false, nil
	}
	u.IsDeleted, u.IsActive = true, false
	return true, nil
}

// --- sessions

type fakeSessions struct{ st *store }

func (f *fakeSessions) WithTx(q database.Querier) repository.SessionRepository { return f }

func (f *fakeSessions) Create(ctx context.Context, session *entity.Session) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c := *session
	f.st.sessions[session.ID] = &c
	return nil
}

func (f *fakeSessions) DeleteExpiredByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for id, s := range f.st.sessions {
		refreshable := s.RefreshExpiresAt != nil && s.RefreshExpiresAt.After(time.Now())
		if s.UserID == userID && !s.ExpiresAt.After(time.Now()) && !refreshable {
			delete(f.st.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) FindActive(ctx context.Context, userID uuid.UUID, tok string) (*entity.Session, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, s := range f.st.sessions {
		if s.UserID == userID && s.Token == tok && s.IsActive && s.ExpiresAt.After(time.Now()) {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) LockActiveByRefresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, s := range f.st.sessions {
		if s.RefreshToken != nil && *s.RefreshToken == refreshToken && s.IsActive &&
			s.RefreshExpiresAt != nil && s.RefreshExpiresAt.After(time.Now()) {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, session *entity.Session) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.sessions[session.ID]
	if !ok || !s.IsActive {
		return fmt.Errorf("session %s not found or inactive", session.ID)
	}
	s.Token, s.RefreshToken = session.Token, session.RefreshToken
	s.ExpiresAt, s.RefreshExpiresAt = session.ExpiresAt, session.RefreshExpiresAt
	return nil
}

func (f *fakeSessions) Deactivate(ctx context.Context, userID uuid.UUID, tok string) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, s := range f.st.sessions {
		if s.UserID == userID && s.Token == tok && s.IsActive {
			s.IsActive, s.RefreshToken, s.RefreshExpiresAt = false, nil, nil
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessions) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for _, s := range f.st.sessions {
		if s.UserID == userID && s.IsActive {
			s.IsActive, s.RefreshToken, s.RefreshExpiresAt = false, nil, nil
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) CleanExpired(ctx context.Context, before time.Time) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for id, s := range f.st.sessions {
		if s.ExpiresAt.Before(before) && (s.RefreshExpiresAt == nil || s.RefreshExpiresAt.Before(before)) {
			delete(f.st.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- audit

type fakeAudit struct{ st *store }

func (f *fakeAudit) WithTx(q database.Querier) repository.AuditLogRepository { return f }

func (f *fakeAudit) Create(ctx context.Context, entry *entity.AuditLog) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c := *entry
	f.st.audits = append(f.st.audits, &c)
	return nil
}

// --- rooms

type fakeRooms struct{ st *store }

func (f *fakeRooms) WithTx(q database.Querier) repository.RoomRepository { return f }

func (f *fakeRooms) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	r, ok := f.st.rooms[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (f *fakeRooms) LockByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	return f.FindByID(ctx, id)
}

// --- bookings

type fakeBookings struct{ st *store }

func (f *fakeBookings) WithTx(q database.Querier) repository.BookingRepository { return f }

func (f *fakeBookings) overlapping(roomID uuid.UUID, start, end time.Time) int64 {
	var n int64
	for _, b := range f.st.bookings {
		if b.RoomID == roomID && b.Status != entity.BookingStatusCancelled &&
			b.StartTime.Before(end) && b.EndTime.After(start) {
			n++
		}
	}
	return n
}

func (f *fakeBookings) Create(ctx context.Context, booking *entity.Booking) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if f.overlapping(booking.RoomID, booking.StartTime, booking.EndTime) > 0 {
		return fmt.Errorf("create booking for room %s: %w", booking.RoomID,
			&pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"})
	}
	c := *booking
	f.st.bookings[booking.ID] = &c
	return nil
}

func (f *fakeBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	b, ok := f.st.bookings[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (f *fakeBookings) FindOwned(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
	b, err := f.FindByID(ctx, id)
	if b == nil || err != nil || b.UserID != userID {
		return nil, err
	}
	return b, nil
}

func (f *fakeBookings) LockByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeBookings) FindIDsByPaymentOrder(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var found []*entity.Booking
	for _, b := range f.st.bookings {
		if b.PaymentOrderID != nil && *b.PaymentOrderID == orderID {
			found = append(found, b)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	ids := make([]uuid.UUID, len(found))
	for i, b := range found {
		ids[i] = b.ID
	}
	return ids, nil
}

func (f *fakeBookings) CountOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if f.st.hideOverlaps {
		return 0, nil
	}
	return f.overlapping(roomID, start, end), nil
}

func (f *fakeBookings) ConfirmPending(ctx context.Context, id uuid.UUID) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	b, ok := f.st.bookings[id]
	if !ok || b.Status != entity.BookingStatusPending {
		return false, nil
	}
	b.Status = entity.BookingStatusConfirmed
	return true, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	b, ok := f.st.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.Status = status
	return nil
}

func (f *fakeBookings) LinkPaymentOrder(ctx context.Context, bookingID, userID, orderID uuid.UUID) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	b, ok := f.st.bookings[bookingID]
	if !ok || b.UserID != userID || b.Status != entity.BookingStatusPending {
		return false, nil
	}
	if o, ok := f.st.orders[orderID]; !ok || o.Status != entity.PaymentStatusPending {
		return false, nil
	}
	for _, other := range f.st.bookings {
		if other.ID != bookingID && other.PaymentOrderID != nil && *other.PaymentOrderID == orderID {
			return false, nil
		}
	}
	id := orderID
	b.PaymentOrderID = &id
	return true, nil
}

func (f *fakeBookings) ExpirePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for _, b := range f.st.bookings {
		if b.Status != entity.BookingStatusPending || !b.CreatedAt.Before(createdBefore) {
			continue
		}
		if b.PaymentOrderID != nil {
			if o := f.st.orders[*b.PaymentOrderID]; o != nil && o.Status == entity.PaymentStatusSuccess {
				continue
			}
		}
		b.Status = entity.BookingStatusCancelled
		n++
	}
	return n, nil
}

func (f *fakeBookings) CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for _, b := range f.st.bookings {
		if b.Status == entity.BookingStatusConfirmed && !b.EndTime.After(endedBefore) {
			b.Status = entity.BookingStatusCompleted
			n++
		}
	}
	return n, nil
}

// --- payment orders

type fakeOrders struct{ st *store }

func (f *fakeOrders) WithTx(q database.Querier) repository.PaymentOrderRepository { return f }

func (f *fakeOrders) InsertIfAbsent(ctx context.Context, order *entity.PaymentOrder) (*entity.PaymentOrder, bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, o := range f.st.orders {
		if o.MerchantOrderNo == order.MerchantOrderNo {
			c := *o
			return &c, false, nil
		}
	}
	stored := *order
	f.st.orders[order.ID] = &stored
	c := stored
	return &c, true, nil
}

func (f *fakeOrders) FindByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*entity.PaymentOrder, error) {
	return f.st.orderByNo(merchantOrderNo), nil
}

func (f *fakeOrders) LockByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*entity.PaymentOrder, error) {
	return f.st.orderByNo(merchantOrderNo), nil
}

func (f *fakeOrders) SetPrepayID(ctx context.Context, id uuid.UUID, prepayID string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	o, ok := f.st.orders[id]
	if !ok {
		return fmt.Errorf("payment order %s not found", id)
	}
	o.PrepayID = &prepayID
	return nil
}

func (f *fakeOrders) MarkSuccess(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	o, ok := f.st.orders[id]
	if !ok || o.Status != entity.PaymentStatusPending {
		return false, nil
	}
	o.Status, o.TransactionID, o.PaidAt = entity.PaymentStatusSuccess, nil, &paidAt
	if transactionID != "" {
		o.TransactionID = &transactionID
	}
	return true, nil
}

func (f *fakeOrders) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	o, ok := f.st.orders[id]
	if !ok || o.Status != entity.PaymentStatusPending {
		return false, nil
	}
	o.Status = entity.PaymentStatusFailed
	return true, nil
}

// --- collaborators

type fakeIdentity struct {
	session *wechat.Session
	err     error
}

func (f *fakeIdentity) Exchange(ctx context.Context, code string) (*wechat.Session, error) {
	return f.session, f.err
}

type fakeGateway struct {
	mu     sync.Mutex
	calls  int
	params *wechat.PaymentParams
	err    error
	block  bool
}

func (f *fakeGateway) UnifiedOrder(ctx context.Context, in wechat.UnifiedOrderRequest) (*wechat.PaymentParams, error) {
	f.mu.Lock()
	f.calls++
	block, params, err := f.block, f.params, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return params, err
}

type published struct {
	key   string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) Publish(ctx context.Context, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{key: key, event: v})
	return nil
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, len(f.events))
	for i, e := range f.events {
		keys[i] = e.key
	}
	return keys
}

func newIssuer() *token.Issuer {
	return token.NewIssuer("test-secret", "room-booking", time.Hour, 24*time.Hour)
}

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func expectTx(mock pgxmock.PgxPoolIface, commit bool) {
	mock.ExpectBeginTx(database.ReadCommitted)
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}
