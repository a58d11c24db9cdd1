package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	WithTx(q database.Querier) BookingRepository

	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindIDsByPaymentOrder(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)

	// Business queries
	CountOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time) (int64, error)
	ConfirmPending(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error
	LinkPaymentOrder(ctx context.Context, bookingID, userID, orderID uuid.UUID) (bool, error)
	ExpirePending(ctx context.Context, createdBefore time.Time) (int64, error)
	CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) WithTx(q database.Querier) BookingRepository {
	return &bookingRepository{db: q, log: r.log}
}

const bookingColumns = `id, user_id, room_id, start_time, end_time, contact_name, contact_phone, remark,
	original_amount, discount_amount, final_amount, status, payment_order_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.RoomID,
		&b.StartTime,
		&b.EndTime,
		&b.ContactName,
		&b.ContactPhone,
		&b.Remark,
		&b.OriginalAmount,
		&b.DiscountAmount,
		&b.FinalAmount,
		&b.Status,
		&b.PaymentOrderID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, room_id, start_time, end_time, contact_name, contact_phone, remark,
		                      original_amount, discount_amount, final_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.RoomID,
		booking.StartTime,
		booking.EndTime,
		booking.ContactName,
		booking.ContactPhone,
		booking.Remark,
		booking.OriginalAmount,
		booking.DiscountAmount,
		booking.FinalAmount,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		// overlap rejected by the exclusion constraint is an expected outcome
		if !database.IsExclusionViolation(err) {
			r.log.Error("Failed to create booking",
				zap.Error(err),
				zap.String("room_id", booking.RoomID.String()),
				zap.String("user_id", booking.UserID.String()),
			)
		}
		return fmt.Errorf("create booking for room %s: %w", booking.RoomID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.findOne(ctx, "find booking by ID", query, id)
}

func (r *bookingRepository) FindOwned(ctx context.Context, id, userID uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND user_id = $2`
	return r.findOne(ctx, "find owned booking", query, id, userID)
}

func (r *bookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, "lock booking", query, id)
}

func (r *bookingRepository) findOne(ctx context.Context, op, query string, id uuid.UUID, args ...any) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, append([]any{id}, args...)...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("%s %s: %w", op, id.String(), err)
	}
	return booking, nil
}

func (r *bookingRepository) FindIDsByPaymentOrder(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT id FROM bookings WHERE payment_order_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		r.log.Error("Failed to find bookings by payment order",
			zap.Error(err),
			zap.String("payment_order_id", orderID.String()),
		)
		return nil, fmt.Errorf("find bookings by payment order %s: %w", orderID.String(), err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking ids: %w", err)
	}

	return ids, nil
}

// CountOverlapping counts non-cancelled bookings of roomID intersecting [start, end).
func (r *bookingRepository) CountOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = $1
		  AND status <> 'cancelled'
		  AND start_time < $3
		  AND end_time > $2
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, roomID, start, end).Scan(&count); err != nil {
		r.log.Error("Failed to count overlapping bookings",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
		)
		return 0, fmt.Errorf("count overlapping bookings for room %s: %w", roomID.String(), err)
	}

	return count, nil
}

// ConfirmPending moves a booking pending -> confirmed; false when it was not pending.
func (r *bookingRepository) ConfirmPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE bookings SET status = 'confirmed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("confirm booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}

// LinkPaymentOrder points a pending booking at a pending order. It is a no-op
// when the order is settled or already linked to another booking.
func (r *bookingRepository) LinkPaymentOrder(ctx context.Context, bookingID, userID, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings SET payment_order_id = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
		  AND EXISTS (
		      SELECT 1 FROM payment_orders p
		      WHERE p.id = $3 AND p.status = 'pending'
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings other
		      WHERE other.payment_order_id = $3 AND other.id <> $1
		  )
	`

	result, err := r.db.Exec(ctx, query, bookingID, userID, orderID)
	if err != nil {
		r.log.Error("Failed to link payment order",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_order_id", orderID.String()),
		)
		return false, fmt.Errorf("link booking %s to order %s: %w", bookingID.String(), orderID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

// ExpirePending cancels pending bookings created before the cutoff unless
// their linked order has already been paid.
func (r *bookingRepository) ExpirePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	query := `
		UPDATE bookings b SET status = 'cancelled', updated_at = NOW()
		WHERE b.status = 'pending'
		  AND b.created_at < $1
		  AND NOT EXISTS (
		      SELECT 1 FROM payment_orders p
		      WHERE p.id = b.payment_order_id AND p.status = 'success'
		  )
	`

	result, err := r.db.Exec(ctx, query, createdBefore)
	if err != nil {
		r.log.Error("Failed to expire pending bookings", zap.Error(err))
		return 0, fmt.Errorf("expire pending bookings: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *bookingRepository) CompleteElapsed(ctx context.Context, endedBefore time.Time) (int64, error) {
	query := `UPDATE bookings SET status = 'completed', updated_at = NOW() WHERE status = 'confirmed' AND end_time <= $1`

	result, err := r.db.Exec(ctx, query, endedBefore)
	if err != nil {
		r.log.Error("Failed to complete elapsed bookings", zap.Error(err))
		return 0, fmt.Errorf("complete elapsed bookings: %w", err)
	}

	return result.RowsAffected(), nil
}
