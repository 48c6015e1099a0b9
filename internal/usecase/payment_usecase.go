package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/infra/paypack"
	repo "agritech/internal/repository"
	"agritech/internal/validator"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type PaymentConfig struct {
	CallbackURL   string
	WebhookSecret string

	// topic for PaymentStatusChanged events
	EventTopic string

	// how long a sent cash-in request stays live at the provider
	PendingWindow time.Duration
}

const defaultPendingWindow = 5 * time.Minute

type PaymentUsecase struct {
	orders    repo.OrderRepository
	users     repo.UserRepository
	tx        repo.TransactionManager
	gateway   PaymentGateway
	publisher EventPublisher
	clock     Clock
	idGen     IDGenerator
	cfg       PaymentConfig
	logger    *zap.Logger
}

// DI
func NewPaymentUsecase(
	orders repo.OrderRepository,
	users repo.UserRepository,
	tx repo.TransactionManager,
	gateway PaymentGateway,
	publisher EventPublisher,
	clock Clock,
	idGen IDGenerator,
	cfg PaymentConfig,
	logger *zap.Logger,
) *PaymentUsecase {
	if cfg.PendingWindow <= 0 {
		cfg.PendingWindow = defaultPendingWindow
	}
	return &PaymentUsecase{
		orders:    orders,
		users:     users,
		tx:        tx,
		gateway:   gateway,
		publisher: publisher,
		clock:     clock,
		idGen:     idGen,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "payment")),
	}
}

// where a status update came from
const (
	sourceVerify  = "verify"
	sourceWebhook = "webhook"
)

type InitiatePaymentOutput struct {
	OrderID        string          `json:"orderId"`
	Reference      string          `json:"reference"`
	PaymentStatus  string          `json:"paymentStatus"`
	Amount         int64           `json:"amount"`
	ProviderStatus string          `json:"providerStatus,omitempty"`
	Provider       json.RawMessage `json:"provider,omitempty"`
}

type VerifyPaymentOutput struct {
	OrderID        string       `json:"orderId"`
	TransactionID  string       `json:"transactionId"`
	PaymentStatus  string       `json:"paymentStatus"`
	ProviderStatus string       `json:"status"`
	Order          *model.Order `json:"order,omitempty"`
}

type WebhookOutput struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
}

type PaymentHealth struct {
	Healthy bool
	// operator-facing cause when unhealthy
	Detail string
}

// PaymentStatusChanged is published after a payment reaches Paid or Failed.
type PaymentStatusChanged struct {
	EventID        string    `json:"eventId"`
	OrderID        string    `json:"orderId"`
	TransactionID  string    `json:"transactionId"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Initiate starts a mobile-money collection for an order.
// The order is marked Pending with its new transaction id before the provider is called.
func (u *PaymentUsecase) Initiate(ctx context.Context, actor Actor, orderID string) (InitiatePaymentOutput, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return InitiatePaymentOutput{}, NewValidationError("orderId is required")
	}

	order, err := u.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return InitiatePaymentOutput{}, NewNotFound("order not found")
	}
	if err != nil {
		return InitiatePaymentOutput{}, NewInternal(err)
	}
	if !actor.IsAdmin() && actor.UserID != order.BuyerID {
		return InitiatePaymentOutput{}, NewForbidden("only the buyer can pay for this order")
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return InitiatePaymentOutput{}, NewValidationError("order is already paid")
	}
	if order.OrderStatus == model.OrderStatusCancelled {
		return InitiatePaymentOutput{}, NewValidationError("order is cancelled")
	}
	// replacing a live reference would orphan its webhook
	if u.requestStillLive(order) {
		return InitiatePaymentOutput{}, NewValidationError("a payment request is already pending for this order, verify it or retry later")
	}

	buyer, err := u.users.FindByID(ctx, order.BuyerID)
	if errors.Is(err, repo.ErrNotFound) {
		return InitiatePaymentOutput{}, NewValidationError("buyer not found for order")
	}
	if err != nil {
		return InitiatePaymentOutput{}, NewInternal(err)
	}
	if strings.TrimSpace(buyer.PhoneNumber) == "" {
		return InitiatePaymentOutput{}, NewValidationError("buyer has no phone number")
	}
	phone, err := validator.NormalizePhone(buyer.PhoneNumber)
	if err != nil {
		return InitiatePaymentOutput{}, NewValidationError(err.Error())
	}

	// fail before touching the order when the provider cannot authenticate us
	if _, err := u.gateway.Token(ctx); err != nil {
		return InitiatePaymentOutput{}, u.gatewayFailure(err)
	}

	now := u.clock.Now()
	reference := fmt.Sprintf("TX-%s-%d", order.OrderID, now.UnixMilli())

	before := paymentSnapshot(order)
	order.TransactionID = &reference
	order.PaymentStatus = model.PaymentStatusPending
	order.PaymentVerified = false
	order.PaymentTimestamp = nil
	order.PaymentRequestedAt = &now

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().UpdatePayment(ctx, order); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionPaymentInitiated,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			BeforeJSON:   before,
			AfterJSON:    paymentSnapshot(order),
			CreatedAt:    now,
		})
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusConflict, "payment initiation already in progress, retry")
	}
	if err != nil {
		return InitiatePaymentOutput{}, NewInternal(err)
	}

	in := paypack.CashIn{
		Amount:      order.TotalAmount,
		Phone:       phone,
		Reference:   reference,
		CallbackURL: u.cfg.CallbackURL,
	}
	ack, err := u.gateway.InitiatePayment(ctx, in)
	if errors.Is(err, paypack.ErrAuthExpired) {
		// token was dropped by the client; one retry with a fresh one
		u.logger.Info("provider rejected token, retrying cash-in", zap.String("reference", reference))
		ack, err = u.gateway.InitiatePayment(ctx, in)
	}
	if err != nil {
		u.logger.Warn("cash-in failed, order left pending",
			zap.String("order_id", order.OrderID),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return InitiatePaymentOutput{}, u.gatewayFailure(err)
	}

	return InitiatePaymentOutput{
		OrderID:        order.OrderID,
		Reference:      reference,
		PaymentStatus:  string(model.PaymentStatusPending),
		Amount:         ack.Amount,
		ProviderStatus: ack.Status,
		Provider:       ack.Raw,
	}, nil
}

func (u *PaymentUsecase) requestStillLive(o *model.Order) bool {
	if o.PaymentStatus != model.PaymentStatusPending || o.TransactionID == nil || o.PaymentRequestedAt == nil {
		return false
	}
	return u.clock.Now().Before(o.PaymentRequestedAt.Add(u.cfg.PendingWindow))
}

// Verify polls the provider for a transaction and applies the result.
// Only the order's buyer or an Admin may verify it.
func (u *PaymentUsecase) Verify(ctx context.Context, actor Actor, transactionID string) (VerifyPaymentOutput, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return VerifyPaymentOutput{}, NewValidationError("transactionId is required")
	}

	// unknown references never reach the provider
	order, err := u.orders.FindByTransactionID(ctx, transactionID)
	if errors.Is(err, repo.ErrNotFound) {
		return VerifyPaymentOutput{}, NewNotFound("order not found")
	}
	if err != nil {
		return VerifyPaymentOutput{}, NewInternal(err)
	}
	if !actor.IsAdmin() && actor.UserID != order.BuyerID {
		return VerifyPaymentOutput{}, NewForbidden("only the buyer can verify this payment")
	}

	st, err := u.gateway.QueryTransaction(ctx, transactionID)
	if errors.Is(err, paypack.ErrAuthExpired) {
		st, err = u.gateway.QueryTransaction(ctx, transactionID)
	}
	if err != nil {
		return VerifyPaymentOutput{}, u.gatewayFailure(err)
	}
	if st.Status == "" {
		return VerifyPaymentOutput{}, &HTTPError{
			Status:  http.StatusInternalServerError,
			Type:    ErrTypeGateway,
			Message: "invalid payment data received",
			Detail:  string(st.Raw),
		}
	}

	status, err := u.apply(ctx, order, ClassifyProviderStatus(st.Status), st.Raw, sourceVerify)
	if err != nil {
		return VerifyPaymentOutput{}, err
	}

	return VerifyPaymentOutput{
		OrderID:        order.OrderID,
		TransactionID:  transactionID,
		PaymentStatus:  string(status),
		ProviderStatus: st.Status,
		Order:          order,
	}, nil
}

// HandleWebhook authenticates a provider callback and applies the reported status.
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookOutput, error) {
	if !paypack.VerifySignature(u.cfg.WebhookSecret, rawBody, signature) {
		u.logger.Warn("webhook signature rejected", zap.Int("body_bytes", len(rawBody)))
		return WebhookOutput{}, NewUnauthorized("invalid signature")
	}

	fields, err := paypack.DecodeFields(rawBody)
	if err != nil {
		return WebhookOutput{}, NewValidationError("invalid notification payload")
	}
	reference, providerStatus := fields.Reference(), fields.Status()
	if reference == "" || providerStatus == "" {
		return WebhookOutput{}, NewValidationError("invalid notification payload")
	}

	order, err := u.orders.FindByTransactionID(ctx, reference)
	if errors.Is(err, repo.ErrNotFound) {
		u.logger.Warn("webhook for unknown transaction", zap.String("reference", reference))
		return WebhookOutput{}, NewNotFound("order not found")
	}
	if err != nil {
		return WebhookOutput{}, NewInternal(err)
	}

	status, err := u.apply(ctx, order, ClassifyProviderStatus(providerStatus), rawBody, sourceWebhook)
	if err != nil {
		return WebhookOutput{}, err
	}
	return WebhookOutput{OrderID: order.OrderID, PaymentStatus: string(status)}, nil
}

// Health reports whether a provider token can be obtained.
func (u *PaymentUsecase) Health(ctx context.Context) PaymentHealth {
	if _, err := u.gateway.Token(ctx); err != nil {
		u.logger.Error("payment provider unavailable", zap.Error(err))
		return PaymentHealth{Healthy: false, Detail: err.Error()}
	}
	return PaymentHealth{Healthy: true}
}

// apply moves the order to target and returns the resulting status.
// Pending targets never mutate. Paid and Failed are final: a different terminal
// target is ignored, the same one only refreshes metadata.
func (u *PaymentUsecase) apply(ctx context.Context, order *model.Order, target model.PaymentStatus, raw []byte, source string) (model.PaymentStatus, error) {
	current := order.PaymentStatus
	if target == model.PaymentStatusPending {
		return current, nil
	}
	if current.Terminal() && current != target {
		u.logger.Warn("ignoring transition out of terminal payment status",
			zap.String("order_id", order.OrderID),
			zap.String("current", string(current)),
			zap.String("reported", string(target)),
			zap.String("source", source),
		)
		return current, nil
	}

	now := u.clock.Now()
	before := paymentSnapshot(order)
	changed := current != target

	order.PaymentStatus = target
	order.PaymentVerified = true
	if json.Valid(raw) {
		order.PaymentMetadata = datatypes.JSON(raw)
	}
	if changed {
		order.PaymentTimestamp = &now
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().UpdatePayment(ctx, order); err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  model.SystemActorID,
			Action:       model.AuditActionPaymentStatusChanged,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			BeforeJSON:   before,
			AfterJSON:    paymentSnapshot(order),
			CreatedAt:    now,
		})
	})
	if err != nil {
		return current, NewInternal(err)
	}

	if changed {
		u.logger.Info("payment status updated",
			zap.String("order_id", order.OrderID),
			zap.String("from", string(current)),
			zap.String("to", string(target)),
			zap.String("source", source),
		)
		u.publishStatusChange(ctx, order, current, source, now)
	}
	return target, nil
}

// publish failures are logged; the stored order is the source of truth
func (u *PaymentUsecase) publishStatusChange(ctx context.Context, order *model.Order, previous model.PaymentStatus, source string, at time.Time) {
	if u.publisher == nil {
		return
	}
	ev := PaymentStatusChanged{
		EventID:        u.idGen.NewID(),
		OrderID:        order.OrderID,
		TransactionID:  derefString(order.TransactionID),
		PreviousStatus: string(previous),
		Status:         string(order.PaymentStatus),
		Source:         source,
		Amount:         order.TotalAmount.StringFixed(2),
		Currency:       order.Currency,
		OccurredAt:     at,
	}
	if err := u.publisher.Publish(ctx, u.cfg.EventTopic, order.OrderID, ev); err != nil {
		u.logger.Error("publish payment status event failed", zap.String("order_id", order.OrderID), zap.Error(err))
	}
}

func (u *PaymentUsecase) gatewayFailure(err error) error {
	var authErr *paypack.AuthError
	var gwErr *paypack.GatewayError
	switch {
	case errors.As(err, &authErr), errors.Is(err, paypack.ErrAuthExpired):
		return &HTTPError{
			Status:  http.StatusServiceUnavailable,
			Type:    ErrTypeGatewayAuth,
			Message: "payment provider unavailable",
			Detail:  err.Error(),
			Err:     err,
		}
	case errors.Is(err, paypack.ErrInvalidAmount):
		return NewValidationError("order amount is invalid")
	case errors.As(err, &gwErr):
		if gwErr.Status == 0 {
			// timeout or transport error; the payment state is unknown
			return &HTTPError{
				Status:  http.StatusServiceUnavailable,
				Type:    ErrTypeGateway,
				Message: "payment provider did not respond, retry later",
				Detail:  err.Error(),
				Err:     err,
			}
		}
		return &HTTPError{
			Status:  http.StatusInternalServerError,
			Type:    ErrTypeGateway,
			Message: "payment provider request failed",
			Detail:  err.Error(),
			Err:     err,
		}
	}
	return NewInternal(err)
}

type paymentState struct {
	PaymentStatus   model.PaymentStatus `json:"paymentStatus"`
	PaymentVerified bool                `json:"paymentVerified"`
	TransactionID   string              `json:"transactionId,omitempty"`
}

func paymentSnapshot(o *model.Order) string {
	b, _ := json.Marshal(paymentState{
		PaymentStatus:   o.PaymentStatus,
		PaymentVerified: o.PaymentVerified,
		TransactionID:   derefString(o.TransactionID),
	})
	return string(b)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
