package usecase

import (
	"context"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/internal/data/repository"
	"room-booking/internal/dto/request"
	"room-booking/internal/dto/response"
	"room-booking/pkg/apperr"
	"room-booking/pkg/database"
	"room-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error)

	// ConfirmBooking is reserved for payment reconciliation and runs on the
	// caller's transaction. It reports whether this call did the transition;
	// repeated or late confirmations are logged, never returned as errors.
	ConfirmBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) (bool, error)

	// Admin
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) (*response.BookingResponse, error)

	// Sweeper
	ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

type bookingService struct {
	db   database.PgxIface
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewBookingService(db database.PgxIface, repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		db:   db,
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
		now:  time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, apperr.Validation(errs)
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return nil, apperr.Validation(map[string]string{"room_id": "Must be a valid UUID"})
	}

	now := s.now()
	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if !start.After(now) {
		return nil, apperr.Validation(map[string]string{"start_time": "Must be in the future"})
	}

	booking := &entity.Booking{
		Base:         entity.NewBase(now),
		UserID:       userID,
		RoomID:       roomID,
		StartTime:    start,
		EndTime:      end,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Remark:       req.Remark,
		Status:       entity.BookingStatusPending,
	}

	err = database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		// the room lock serializes every booking attempt for this room
		room, err := s.repo.Room.WithTx(tx).LockByID(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return apperr.New(apperr.KindNotFound, "Room not found")
		}
		if !room.IsAvailable {
			return apperr.New(apperr.KindInvalidState, "Room is not available for booking")
		}

		bookings := s.repo.Booking.WithTx(tx)
		overlapping, err := bookings.CountOverlapping(ctx, roomID, start, end)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return apperr.New(apperr.KindConflict, "Time slot is already booked")
		}

		booking.OriginalAmount, booking.DiscountAmount, booking.FinalAmount = room.Quote(booking.Minutes())

		if err := bookings.Create(ctx, booking); err != nil {
			if database.IsExclusionViolation(err) {
				return apperr.Wrap(apperr.KindConflict, err, "Time slot is already booked")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			s.log.Info("Booking rejected, slot taken",
				zap.String("room_id", roomID.String()),
				zap.Time("start_time", start),
				zap.Time("end_time", end),
			)
		}
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("room_id", roomID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("final_amount", booking.FinalAmount),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindOwned(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperr.New(apperr.KindNotFound, "Booking not found")
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error) {
	var booking *entity.Booking
	err := database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		bookings := s.repo.Booking.WithTx(tx)

		var err error
		booking, err = bookings.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil || booking.UserID != userID {
			return apperr.New(apperr.KindNotFound, "Booking not found")
		}
		if booking.Status.Terminal() {
			return apperr.New(apperr.KindInvalidState, "Booking is already %s", booking.Status)
		}

		if booking.Status == entity.BookingStatusConfirmed {
			s.log.Warn("Cancelling a paid booking, refund is handled manually",
				zap.String("booking_id", booking.ID.String()),
			)
		}

		if err := bookings.UpdateStatus(ctx, booking.ID, entity.BookingStatusCancelled); err != nil {
			return err
		}
		booking.Status = entity.BookingStatusCancelled
		booking.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("user_id", userID.String()),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) (bool, error) {
	bookings := s.repo.Booking.WithTx(q)

	confirmed, err := bookings.ConfirmPending(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if confirmed {
		s.log.Info("Booking confirmed", zap.String("booking_id", bookingID.String()))
		return true, nil
	}

	booking, err := bookings.FindByID(ctx, bookingID)
	if err != nil {
		return false, err
	}

	switch {
	case booking == nil:
		s.log.Error("Payment captured for a missing booking",
			zap.String("booking_id", bookingID.String()),
		)
	case booking.Status == entity.BookingStatusConfirmed:
		s.log.Info("Booking already confirmed, skipping",
			zap.String("booking_id", bookingID.String()),
		)
	default:
		s.log.Error("Payment captured for a booking that is no longer pending",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(booking.Status)),
		)
	}
	return false, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) (*response.BookingResponse, error) {
	if !status.Valid() {
		return nil, apperr.Validation(map[string]string{"status": "Unknown booking status"})
	}

	var booking *entity.Booking
	err := database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		bookings := s.repo.Booking.WithTx(tx)

		var err error
		booking, err = bookings.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperr.New(apperr.KindNotFound, "Booking not found")
		}
		if booking.Status == status {
			return nil
		}
		if booking.Status.Terminal() {
			return apperr.New(apperr.KindInvalidState, "Booking is %s and can no longer change", booking.Status)
		}

		if err := bookings.UpdateStatus(ctx, bookingID, status); err != nil {
			return err
		}

		s.log.Info("Booking status overridden",
			zap.String("booking_id", bookingID.String()),
			zap.String("from", string(booking.Status)),
			zap.String("to", string(status)),
		)
		booking.Status = status
		booking.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := s.repo.Booking.ExpirePending(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Expired stale pending bookings",
			zap.Int64("count", n),
			zap.Time("created_before", olderThan),
		)
	}
	return n, nil
}

func (s *bookingService) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.Booking.CompleteElapsed(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Completed elapsed bookings", zap.Int64("count", n))
	}
	return n, nil
}
