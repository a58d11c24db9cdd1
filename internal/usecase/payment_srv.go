package usecase

import (
	"context"
	"errors"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/internal/data/repository"
	"room-booking/internal/dto/request"
	"room-booking/internal/gateway/wechat"
	"room-booking/pkg/apperr"
	"room-booking/pkg/database"
	"room-booking/pkg/mq"
	"room-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const defaultOrderBody = "Room booking"

type OrderInput struct {
	UserID          uuid.UUID
	OpenID          string
	MerchantOrderNo string
	Amount          int64
	Body            string
	ClientIP        string
}

type OrderResult struct {
	Order   *entity.PaymentOrder
	Created bool
}

// CallbackInput is a gateway notification after transport decoding.
type CallbackInput struct {
	MerchantOrderNo string
	Success         bool
	TransactionID   string
	Amount          *int64
	PaidAt          time.Time
}

type CallbackResult struct {
	Order *entity.PaymentOrder
	// Applied is false when the order was already settled.
	Applied bool
	Status  entity.PaymentStatus
}

type PayResult struct {
	Order   *entity.PaymentOrder
	Created bool
	Params  *wechat.PaymentParams
}

type PaymentService interface {
	CreateOrGetOrder(ctx context.Context, in OrderInput) (*OrderResult, error)
	LinkBooking(ctx context.Context, order *entity.PaymentOrder, bookingID, userID uuid.UUID) (bool, error)
	RequestPayment(ctx context.Context, order *entity.PaymentOrder, clientIP string) (*wechat.PaymentParams, error)
	HandleCallback(ctx context.Context, cb CallbackInput) (*CallbackResult, error)

	Pay(ctx context.Context, userID uuid.UUID, req *request.PayRequest, clientIP string) (*PayResult, error)
	GetOrder(ctx context.Context, userID uuid.UUID, merchantOrderNo string) (*entity.PaymentOrder, error)
}

type paymentService struct {
	db       database.PgxIface
	repo     *repository.Repository
	bookings BookingService
	gateway  PaymentGateway
	events   EventPublisher
	timeout  time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentService(
	db database.PgxIface,
	repo *repository.Repository,
	bookings BookingService,
	gateway PaymentGateway,
	events EventPublisher,
	cfg utils.WeChatConfig,
	log *zap.Logger,
) PaymentService {
	if events == nil {
		events = mq.Nop{}
	}
	return &paymentService{
		db:       db,
		repo:     repo,
		bookings: bookings,
		gateway:  gateway,
		events:   events,
		timeout:  cfg.PayTimeout,
		log:      log.With(zap.String("service", "payment")),
		now:      time.Now,
	}
}

// CreateOrGetOrder is the only path that inserts payment orders. A repeated
// merchant order number returns the stored order untouched.
func (s *paymentService) CreateOrGetOrder(ctx context.Context, in OrderInput) (*OrderResult, error) {
	errs := make(map[string]string)
	if !utils.IsMerchantOrderNo(in.MerchantOrderNo) {
		errs["merchant_order_no"] = "Must be a 26 digit merchant order number"
	}
	if in.Amount <= 0 {
		errs["amount"] = "Must be greater than 0"
	}
	if in.OpenID == "" {
		errs["openid"] = "This field is required"
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	body := in.Body
	if body == "" {
		body = defaultOrderBody
	}

	candidate := &entity.PaymentOrder{
		Base:            entity.NewBase(s.now()),
		UserID:          in.UserID,
		OpenID:          in.OpenID,
		MerchantOrderNo: in.MerchantOrderNo,
		Body:            body,
		Amount:          in.Amount,
		Status:          entity.PaymentStatusPending,
		IPAddress:       optional(in.ClientIP),
	}

	result := &OrderResult{}
	err := database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		order, created, err := s.repo.PaymentOrder.WithTx(tx).InsertIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if !created && order.UserID != in.UserID {
			return apperr.New(apperr.KindConflict, "Merchant order number is already in use")
		}
		result.Order, result.Created = order, created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.log.Info("Payment order created",
			zap.String("merchant_order_no", in.MerchantOrderNo),
			zap.String("user_id", in.UserID.String()),
			zap.Int64("amount", in.Amount),
		)
	} else {
		s.log.Info("Payment order reused",
			zap.String("merchant_order_no", in.MerchantOrderNo),
			zap.String("status", string(result.Order.Status)),
		)
	}
	return result, nil
}

func (s *paymentService) LinkBooking(ctx context.Context, order *entity.PaymentOrder, bookingID, userID uuid.UUID) (bool, error) {
	linked, err := s.repo.Booking.LinkPaymentOrder(ctx, bookingID, userID, order.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, apperr.New(apperr.KindConflict, "Payment order is already linked to another booking")
		}
		return false, err
	}
	if !linked {
		s.log.Warn("Booking not linked, booking or order no longer pending",
			zap.String("booking_id", bookingID.String()),
			zap.String("user_id", userID.String()),
			zap.String("merchant_order_no", order.MerchantOrderNo),
		)
	}
	return linked, nil
}

// RequestPayment never runs inside a transaction. The order was committed
// before the gateway is called, and only an explicit reject fails it.
func (s *paymentService) RequestPayment(ctx context.Context, order *entity.PaymentOrder, clientIP string) (*wechat.PaymentParams, error) {
	if order.Status != entity.PaymentStatusPending {
		return nil, apperr.New(apperr.KindInvalidState, "Payment order is already %s", order.Status)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	params, err := s.gateway.UnifiedOrder(callCtx, wechat.UnifiedOrderRequest{
		OpenID:          order.OpenID,
		Body:            order.Body,
		MerchantOrderNo: order.MerchantOrderNo,
		TotalFee:        order.Amount,
		ClientIP:        clientIP,
	})
	if err != nil {
		return nil, s.gatewayFailure(ctx, order, err)
	}

	if prepayID := params.PrepayID(); prepayID != "" {
		if err := s.repo.PaymentOrder.SetPrepayID(ctx, order.ID, prepayID); err != nil {
			// the callback reconciles by merchant order number, so the client can still pay
			s.log.Warn("Failed to store prepay id",
				zap.Error(err),
				zap.String("merchant_order_no", order.MerchantOrderNo),
			)
		} else {
			order.PrepayID = &prepayID
		}
	}

	s.log.Info("Payment requested",
		zap.String("merchant_order_no", order.MerchantOrderNo),
		zap.Int64("amount", order.Amount),
	)
	return params, nil
}

func (s *paymentService) gatewayFailure(ctx context.Context, order *entity.PaymentOrder, err error) error {
	if !apperr.Is(err, apperr.KindPaymentGateway) {
		s.log.Warn("Payment gateway unavailable, order left pending",
			zap.Error(err),
			zap.String("merchant_order_no", order.MerchantOrderNo),
		)
		if apperr.Is(err, apperr.KindGatewayUnavail) {
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Wrap(apperr.KindGatewayUnavail, err, "Payment gateway timed out")
		}
		return apperr.Wrap(apperr.KindGatewayUnavail, err, "Payment gateway unavailable")
	}

	failed, markErr := s.repo.PaymentOrder.MarkFailed(ctx, order.ID)
	if markErr != nil {
		return errors.Join(err, markErr)
	}
	if failed {
		order.Status = entity.PaymentStatusFailed
		s.publish(ctx, mq.KeyPaymentFailed, mq.PaymentFailed{
			MerchantOrderNo: order.MerchantOrderNo,
			UserID:          order.UserID.String(),
			Reason:          err.Error(),
		})
	}

	s.log.Warn("Payment rejected by gateway",
		zap.Error(err),
		zap.String("merchant_order_no", order.MerchantOrderNo),
	)
	return err
}

// HandleCallback is safe under at-least-once delivery: the order row lock
// serializes duplicates and a settled order is acknowledged without changes.
func (s *paymentService) HandleCallback(ctx context.Context, cb CallbackInput) (*CallbackResult, error) {
	if cb.MerchantOrderNo == "" {
		return nil, apperr.Validation(map[string]string{"out_trade_no": "This field is required"})
	}

	result := &CallbackResult{}
	var confirmed []*entity.Booking

	err := database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		orders := s.repo.PaymentOrder.WithTx(tx)

		order, err := orders.LockByMerchantOrderNo(ctx, cb.MerchantOrderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return apperr.New(apperr.KindNotFound, "Payment order not found")
		}
		result.Order = order
		result.Status = order.Status

		if order.Status.Terminal() {
			s.log.Info("Duplicate payment callback ignored",
				zap.String("merchant_order_no", order.MerchantOrderNo),
				zap.String("status", string(order.Status)),
			)
			return nil
		}

		if !cb.Success {
			if _, err := orders.MarkFailed(ctx, order.ID); err != nil {
				return err
			}
			order.Status = entity.PaymentStatusFailed
			result.Applied, result.Status = true, order.Status
			return nil
		}

		if cb.Amount != nil && *cb.Amount != order.Amount {
			s.log.Error("Payment callback amount mismatch",
				zap.String("merchant_order_no", order.MerchantOrderNo),
				zap.Int64("expected", order.Amount),
				zap.Int64("received", *cb.Amount),
			)
			return apperr.New(apperr.KindValidation, "Amount does not match the order")
		}

		paidAt := cb.PaidAt
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		if cb.TransactionID == "" {
			s.log.Warn("Payment callback without transaction id, stored as NULL",
				zap.String("merchant_order_no", order.MerchantOrderNo),
			)
		}
		if _, err := orders.MarkSuccess(ctx, order.ID, cb.TransactionID, paidAt); err != nil {
			return err
		}
		order.Status = entity.PaymentStatusSuccess
		order.TransactionID = nil
		if cb.TransactionID != "" {
			order.TransactionID = &cb.TransactionID
		}
		order.PaidAt = &paidAt
		result.Applied, result.Status = true, order.Status

		bookings := s.repo.Booking.WithTx(tx)
		ids, err := bookings.FindIDsByPaymentOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		switch len(ids) {
		case 0:
			s.log.Warn("Paid order has no linked booking",
				zap.String("merchant_order_no", order.MerchantOrderNo),
			)
			return nil
		case 1:
		default:
			// the unique index on payment_order_id rules this out
			s.log.Error("Paid order linked to several bookings, confirming the first",
				zap.String("merchant_order_no", order.MerchantOrderNo),
				zap.Int("bookings", len(ids)),
			)
		}

		ok, err := s.bookings.ConfirmBooking(ctx, tx, ids[0])
		if err != nil || !ok {
			return err
		}
		booking, err := bookings.FindByID(ctx, ids[0])
		if err != nil {
			return err
		}
		if booking != nil {
			confirmed = append(confirmed, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.log.Info("Payment callback applied",
			zap.String("merchant_order_no", cb.MerchantOrderNo),
			zap.String("status", string(result.Status)),
			zap.Int("bookings_confirmed", len(confirmed)),
		)
		s.announce(ctx, result.Order, confirmed)
	}
	return result, nil
}

// announce publishes after commit so consumers never see uncommitted state.
func (s *paymentService) announce(ctx context.Context, order *entity.PaymentOrder, confirmed []*entity.Booking) {
	if order.Status == entity.PaymentStatusFailed {
		s.publish(ctx, mq.KeyPaymentFailed, mq.PaymentFailed{
			MerchantOrderNo: order.MerchantOrderNo,
			UserID:          order.UserID.String(),
			Reason:          "payment failed",
		})
		return
	}

	for _, b := range confirmed {
		s.publish(ctx, mq.KeyBookingConfirmed, mq.BookingConfirmed{
			BookingID:       b.ID.String(),
			RoomID:          b.RoomID.String(),
			UserID:          b.UserID.String(),
			MerchantOrderNo: order.MerchantOrderNo,
			StartTime:       b.StartTime,
			EndTime:         b.EndTime,
		})
	}
}

func (s *paymentService) publish(ctx context.Context, key string, v any) {
	if err := s.events.Publish(ctx, key, v); err != nil {
		s.log.Warn("Event not published", zap.Error(err), zap.String("routing_key", key))
	}
}

// Pay creates or reuses the order for one pending booking, links it and asks
// the gateway for client payment parameters. The amount always comes from
// the booking.
func (s *paymentService) Pay(ctx context.Context, userID uuid.UUID, req *request.PayRequest, clientIP string) (*PayResult, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Pay validation failed", zap.Any("errors", errs))
		return nil, apperr.Validation(errs)
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apperr.Validation(map[string]string{"booking_id": "Must be a valid UUID"})
	}

	booking, err := s.repo.Booking.FindOwned(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperr.New(apperr.KindNotFound, "Booking not found")
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, apperr.New(apperr.KindInvalidState, "Booking is %s and cannot be paid", booking.Status)
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted {
		return nil, apperr.New(apperr.KindUnauthorized, "Account is not active")
	}

	merchantOrderNo := req.MerchantOrderNo
	if merchantOrderNo == "" {
		merchantOrderNo = utils.GenerateMerchantOrderNo(userID)
	}

	ordered, err := s.CreateOrGetOrder(ctx, OrderInput{
		UserID:          userID,
		OpenID:          user.OpenID,
		MerchantOrderNo: merchantOrderNo,
		Amount:          booking.FinalAmount,
		Body:            req.Body,
		ClientIP:        clientIP,
	})
	if err != nil {
		return nil, err
	}
	order := ordered.Order

	if !ordered.Created {
		if err := s.checkReusable(ctx, order, booking); err != nil {
			return nil, err
		}
	}

	linked, err := s.LinkBooking(ctx, order, booking.ID, userID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, apperr.New(apperr.KindInvalidState, "Booking or payment order is no longer pending")
	}

	params, err := s.RequestPayment(ctx, order, clientIP)
	if err != nil {
		return nil, err
	}

	return &PayResult{Order: order, Created: ordered.Created, Params: params}, nil
}

// checkReusable rejects an existing order that cannot pay for booking: a
// different amount, a settled order, or one already linked elsewhere.
func (s *paymentService) checkReusable(ctx context.Context, order *entity.PaymentOrder, booking *entity.Booking) error {
	if order.Amount != booking.FinalAmount {
		return apperr.New(apperr.KindConflict, "Merchant order number was issued for a different amount")
	}
	if order.Status != entity.PaymentStatusPending {
		return apperr.New(apperr.KindInvalidState, "Payment order is already %s", order.Status)
	}

	ids, err := s.repo.Booking.FindIDsByPaymentOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id != booking.ID {
			s.log.Warn("Payment order reuse rejected, linked to another booking",
				zap.String("merchant_order_no", order.MerchantOrderNo),
				zap.String("booking_id", booking.ID.String()),
				zap.String("linked_booking_id", id.String()),
			)
			return apperr.New(apperr.KindConflict, "Payment order is already linked to another booking")
		}
	}
	return nil
}

func (s *paymentService) GetOrder(ctx context.Context, userID uuid.UUID, merchantOrderNo string) (*entity.PaymentOrder, error) {
	if !utils.IsMerchantOrderNo(merchantOrderNo) {
		return nil, apperr.Validation(map[string]string{"merchant_order_no": "Must be a 26 digit merchant order number"})
	}

	order, err := s.repo.PaymentOrder.FindByMerchantOrderNo(ctx, merchantOrderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "Payment order not found")
	}
	return order, nil
}
