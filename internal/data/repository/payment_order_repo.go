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

type PaymentOrderRepository interface {
	WithTx(q database.Querier) PaymentOrderRepository

	// InsertIfAbsent inserts order unless its merchant order number exists,
	// returning the stored row and whether this call created it.
	InsertIfAbsent(ctx context.Context, order *entity.PaymentOrder) (*entity.PaymentOrder, bool, error)
	FindByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*entity.PaymentOrder, error)
	LockByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*entity.PaymentOrder, error)

	SetPrepayID(ctx context.Context, id uuid.UUID, prepayID string) error
	MarkSuccess(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

type paymentOrderRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentOrderRepository(db database.Querier, log *zap.Logger) PaymentOrderRepository {
	return &paymentOrderRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_order")),
	}
}

func (r *paymentOrderRepository) WithTx(q database.Querier) PaymentOrderRepository {
	return &paymentOrderRepository{db: q, log: r.log}
}

const paymentOrderColumns = `id, user_id, openid, merchant_order_no, body, amount, status,
	transaction_id, prepay_id, ip_address, paid_at, created_at, updated_at`

func scanPaymentOrder(row pgx.Row) (*entity.PaymentOrder, error) {
	var o entity.PaymentOrder
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OpenID,
		&o.MerchantOrderNo,
		&o.Body,
		&o.Amount,
		&o.Status,
		&o.TransactionID,
		&o.PrepayID,
		&o.IPAddress,
		&o.PaidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *paymentOrderRepository) InsertIfAbsent(ctx context.Context, order *entity.PaymentOrder) (*entity.PaymentOrder, bool, error) {
	query := `
		INSERT INTO payment_orders (id, user_id, openid, merchant_order_no, body, amount, status,
		                            ip_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (merchant_order_no) DO NOTHING
		RETURNING ` + paymentOrderColumns

	stored, err := scanPaymentOrder(r.db.QueryRow(ctx, query,
		order.ID,
		order.UserID,
		order.OpenID,
		order.MerchantOrderNo,
		order.Body,
		order.Amount,
		order.Status,
		order.IPAddress,
		order.CreatedAt,
		order.UpdatedAt,
	))

	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("Failed to insert payment order",
			zap.Error(err),
			zap.String("merchant_order_no", order.MerchantOrderNo),
		)
		return nil, false, fmt.Errorf("insert payment order %s: %w", order.MerchantOrderNo, err)
	}

	// conflict: someone already created this order number
	existing, err := r.FindByMerchantOrderNo(ctx, order.MerchantOrderNo)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("payment order %s vanished after conflict", order.MerchantOrderNo)
	}
	return existing, false, nil
}

func (r *paymentOrderRepository) FindByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*entity.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE merchant_order_no = $1`
	return r.findOne(ctx, "find payment order", query, merchantOrderNo)
}

func (r *paymentOrderRepository) LockByMerchantOrderNo(ctx context.Context, merchantOrderNo string) (*entity.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE merchant_order_no = $1 FOR UPDATE`
	return r.findOne(ctx, "lock payment order", query, merchantOrderNo)
}

func (r *paymentOrderRepository) findOne(ctx context.Context, op, query, merchantOrderNo string) (*entity.PaymentOrder, error) {
	order, err := scanPaymentOrder(r.db.QueryRow(ctx, query, merchantOrderNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("merchant_order_no", merchantOrderNo),
		)
		return nil, fmt.Errorf("%s %s: %w", op, merchantOrderNo, err)
	}
	return order, nil
}

func (r *paymentOrderRepository) SetPrepayID(ctx context.Context, id uuid.UUID, prepayID string) error {
	query := `UPDATE payment_orders SET prepay_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, prepayID)
	if err != nil {
		r.log.Error("Failed to store prepay id",
			zap.Error(err),
			zap.String("payment_order_id", id.String()),
		)
		return fmt.Errorf("set prepay id on order %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment order %s not found", id.String())
	}

	return nil
}

func (r *paymentOrderRepository) MarkSuccess(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE payment_orders
		SET status = 'success', transaction_id = NULLIF($2, ''), paid_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id, transactionID, paidAt)
	if err != nil {
		r.log.Error("Failed to mark payment order paid",
			zap.Error(err),
			zap.String("payment_order_id", id.String()),
		)
		return false, fmt.Errorf("mark order %s success: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentOrderRepository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE payment_orders SET status = 'failed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to mark payment order failed",
			zap.Error(err),
			zap.String("payment_order_id", id.String()),
		)
		return false, fmt.Errorf("mark order %s failed: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}
