package repository

import (
	"context"
	"errors"
	"fmt"

	"room-booking/internal/data/entity"
	"room-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RoomRepository interface {
	WithTx(q database.Querier) RoomRepository
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	// LockByID takes the room row lock that serializes bookings of one room.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Room, error)
}

type roomRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewRoomRepository(db database.Querier, log *zap.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log.With(zap.String("repository", "room")),
	}
}

func (r *roomRepository) WithTx(q database.Querier) RoomRepository {
	return &roomRepository{db: q, log: r.log}
}

const roomColumns = `id, name, price_per_hour, discount, is_available, created_at, updated_at`

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	return r.find(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
}

func (r *roomRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	return r.find(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, id)
}

func (r *roomRepository) find(ctx context.Context, query string, id uuid.UUID) (*entity.Room, error) {
	var room entity.Room
	err := r.db.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.PricePerHour,
		&room.Discount,
		&room.IsAvailable,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room by ID",
			zap.Error(err),
			zap.String("room_id", id.String()),
		)
		return nil, fmt.Errorf("find room by ID %s: %w", id.String(), err)
	}

	return &room, nil
}
