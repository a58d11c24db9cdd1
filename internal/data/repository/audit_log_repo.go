package repository

import (
	"context"
	"fmt"

	"room-booking/internal/data/entity"
	"room-booking/pkg/database"

	"go.uber.org/zap"
)

// AuditLogRepository is append-only.
type AuditLogRepository interface {
	WithTx(q database.Querier) AuditLogRepository
	Create(ctx context.Context, entry *entity.AuditLog) error
}

type auditLogRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAuditLogRepository(db database.Querier, log *zap.Logger) AuditLogRepository {
	return &auditLogRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit_log")),
	}
}

func (r *auditLogRepository) WithTx(q database.Querier) AuditLogRepository {
	return &auditLogRepository{db: q, log: r.log}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, detail, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.Detail,
		entry.IPAddress,
		entry.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to write audit log",
			zap.Error(err),
			zap.String("action", entry.Action),
		)
		return fmt.Errorf("write audit log %s: %w", entry.Action, err)
	}

	return nil
}
