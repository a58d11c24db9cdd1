package cmd

import (
	"context"
	"time"

	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

// PendingExpirer cancels PENDING bookings created before olderThan.
type PendingExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

type SessionCleaner interface {
	CleanExpired(ctx context.Context, before time.Time) (int64, error)
}

// RunBookingSweeper runs one sweep every cfg.SweepInterval until ctx is done.
func RunBookingSweeper(ctx context.Context, bookings PendingExpirer, sessions SessionCleaner, cfg utils.BookingConfig, log *zap.Logger) {
	if cfg.SweepInterval <= 0 {
		log.Info("Booking sweeper disabled")
		return
	}
	log = log.With(zap.String("component", "sweeper"))

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Booking sweeper stopped")
			return
		case now := <-ticker.C:
			sweep(ctx, bookings, sessions, cfg, now, log)
		}
	}
}

func sweep(ctx context.Context, bookings PendingExpirer, sessions SessionCleaner, cfg utils.BookingConfig, now time.Time, log *zap.Logger) {
	if cfg.PendingTTL > 0 {
		n, err := bookings.ExpireStalePending(ctx, now.Add(-cfg.PendingTTL))
		if err != nil {
			log.Error("Failed to expire pending bookings", zap.Error(err))
		} else if n > 0 {
			log.Info("Expired unpaid bookings", zap.Int64("count", n))
		}
	}

	if n, err := bookings.CompleteElapsed(ctx, now); err != nil {
		log.Error("Failed to complete elapsed bookings", zap.Error(err))
	} else if n > 0 {
		log.Info("Completed elapsed bookings", zap.Int64("count", n))
	}

	if n, err := sessions.CleanExpired(ctx, now); err != nil {
		log.Error("Failed to clean expired sessions", zap.Error(err))
	} else if n > 0 {
		log.Debug("Cleaned expired sessions", zap.Int64("count", n))
	}
}
