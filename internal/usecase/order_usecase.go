package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OrderEventPlaced        = "order.placed"
	OrderEventStatusChanged = "order.status_changed"
)

type OrderUsecase struct {
	orders    repo.OrderRepository
	tx        repo.TransactionManager
	publisher EventPublisher
	clock     Clock
	idGen     IDGenerator
	topic     string
	logger    *zap.Logger
}

// DI
func NewOrderUsecase(
	orders repo.OrderRepository,
	tx repo.TransactionManager,
	publisher EventPublisher,
	clock Clock,
	idGen IDGenerator,
	topic string,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		orders:    orders,
		tx:        tx,
		publisher: publisher,
		clock:     clock,
		idGen:     idGen,
		topic:     topic,
		logger:    logger.With(zap.String("component", "order")),
	}
}

type PlaceOrderInput struct {
	ProductID       int64
	Quantity        int64
	PaymentChannel  model.PaymentChannel
	Currency        string
	ShippingAddress model.ShippingAddress
	DeliveryDate    *time.Time
}

type UpdateOrderStatusInput struct {
	Status       model.OrderStatus
	DeliveryDate *time.Time
}

// OrderEvent is published when an order is placed or its lifecycle status changes.
type OrderEvent struct {
	EventID        string    `json:"eventId"`
	Type           string    `json:"type"`
	OrderID        string    `json:"orderId"`
	BuyerID        int64     `json:"buyerId"`
	SellerID       int64     `json:"sellerId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	TotalAmount    string    `json:"totalAmount"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// lifecycle moves a seller or admin may make
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending: {model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled},
	model.OrderStatusShipped: {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

// Place creates a Pending order for one product and reserves its stock.
func (u *OrderUsecase) Place(ctx context.Context, actor Actor, in PlaceOrderInput) (*model.Order, error) {
	if actor.UserID <= 0 {
		return nil, NewUnauthorized("Buyer not authenticated")
	}
	if in.ProductID <= 0 {
		return nil, NewValidationError("invalid product id")
	}
	if in.Quantity < 1 {
		return nil, NewValidationError("quantity must be at least 1")
	}
	if !in.PaymentChannel.Valid() {
		return nil, NewValidationError("invalid payment channel")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}
	if currency != model.DefaultCurrency {
		return nil, NewValidationError("only RWF is supported")
	}
	addr := trimAddress(in.ShippingAddress)
	if addr.FullName == "" || addr.PhoneNumber == "" || addr.StreetAddress == "" || addr.City == "" {
		return nil, NewValidationError("Missing required order fields")
	}

	now := u.clock.Now()
	var order *model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound(fmt.Sprintf("Product with ID %d not found", in.ProductID))
		}
		if err != nil {
			return NewInternal(err)
		}
		if p.SellerID == actor.UserID {
			return NewValidationError("you cannot order your own product")
		}

		ok, err := r.Inventory().Reserve(ctx, p.ID, in.Quantity)
		if err != nil {
			return NewInternal(err)
		}
		if !ok {
			return NewValidationError("insufficient stock")
		}

		o := &model.Order{
			OrderID:  u.newOrderID(now),
			BuyerID:  actor.UserID,
			SellerID: p.SellerID,
			Product: model.OrderLine{
				ProductID: p.ID,
				Quantity:  in.Quantity,
				UnitPrice: p.Price,
			},
			TotalAmount:     p.Price.Mul(decimal.NewFromInt(in.Quantity)),
			Currency:        currency,
			OrderStatus:     model.OrderStatusPending,
			ShippingAddress: addr,
			PaymentStatus:   model.PaymentStatusPending,
			PaymentMethod:   model.PaymentMethodPayPack,
			PaymentChannel:  in.PaymentChannel,
			OrderDate:       now,
			DeliveryDate:    in.DeliveryDate,
		}
		if err := r.Orders().Create(ctx, o); err != nil {
			return NewInternal(err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order placed",
		zap.String("order_id", order.OrderID),
		zap.Int64("buyer_id", order.BuyerID),
		zap.Int64("product_id", order.Product.ProductID),
	)
	u.publish(ctx, order, OrderEventPlaced, "", now)
	return order, nil
}

func (u *OrderUsecase) ListAll(ctx context.Context) ([]model.Order, error) {
	return u.list(ctx, repo.OrderFilter{})
}

func (u *OrderUsecase) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error) {
	if buyerID <= 0 {
		return nil, NewUnauthorized("unauthorized")
	}
	return u.list(ctx, repo.OrderFilter{BuyerID: &buyerID})
}

func (u *OrderUsecase) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	if sellerID <= 0 {
		return nil, NewUnauthorized("unauthorized")
	}
	return u.list(ctx, repo.OrderFilter{SellerID: &sellerID})
}

func (u *OrderUsecase) list(ctx context.Context, f repo.OrderFilter) ([]model.Order, error) {
	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return nil, NewInternal(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle. Cancelling restores stock.
// Only the order's seller or an admin may do this.
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actor Actor, orderID string, in UpdateOrderStatusInput) (*model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, NewValidationError("orderId is required")
	}
	switch in.Status {
	case model.OrderStatusPending, model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return nil, NewValidationError("invalid status")
	}

	now := u.clock.Now()
	var (
		order   *model.Order
		before  model.OrderStatus
		changed bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("order not found")
		}
		if err != nil {
			return NewInternal(err)
		}
		if !actor.IsAdmin() && o.SellerID != actor.UserID {
			return NewForbidden("only the seller can update this order")
		}
		order = o

		// same status is a no-op
		if o.OrderStatus == in.Status {
			return nil
		}
		if !canMoveOrder(o.OrderStatus, in.Status) {
			return NewValidationError(fmt.Sprintf("cannot change %s order to %s", strings.ToLower(string(o.OrderStatus)), strings.ToLower(string(in.Status))))
		}
		if in.Status == model.OrderStatusCancelled && o.PaymentStatus == model.PaymentStatusPaid {
			return NewValidationError("paid orders cannot be cancelled")
		}

		if in.Status == model.OrderStatusCancelled {
			if err := r.Inventory().Release(ctx, o.Product.ProductID, o.Product.Quantity); err != nil {
				// product may have been deleted since; the order still cancels
				if !errors.Is(err, repo.ErrNotFound) {
					return NewInternal(err)
				}
			}
		}

		before = o.OrderStatus
		o.OrderStatus = in.Status
		switch {
		case in.DeliveryDate != nil:
			o.DeliveryDate = in.DeliveryDate
		case in.Status == model.OrderStatusDelivered:
			o.DeliveryDate = &now
		}

		if err := r.Orders().UpdateStatus(ctx, o); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("order not found")
			}
			return NewInternal(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   statusJSON(before),
			AfterJSON:    statusJSON(o.OrderStatus),
			CreatedAt:    now,
		}); err != nil {
			return NewInternal(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		u.publish(ctx, order, OrderEventStatusChanged, before, now)
	}
	return order, nil
}

func canMoveOrder(from, to model.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ORD-<unix ms>-<8 hex chars>
func (u *OrderUsecase) newOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(u.idGen.NewID(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

func (u *OrderUsecase) publish(ctx context.Context, o *model.Order, eventType string, previous model.OrderStatus, at time.Time) {
	if u.publisher == nil {
		return
	}
	ev := OrderEvent{
		EventID:        u.idGen.NewID(),
		Type:           eventType,
		OrderID:        o.OrderID,
		BuyerID:        o.BuyerID,
		SellerID:       o.SellerID,
		Status:         string(o.OrderStatus),
		PreviousStatus: string(previous),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Currency:       o.Currency,
		OccurredAt:     at,
	}
	if err := u.publisher.Publish(ctx, u.topic, o.OrderID, ev); err != nil {
		u.logger.Error("publish order event failed", zap.String("order_id", o.OrderID), zap.String("type", eventType), zap.Error(err))
	}
}

func trimAddress(a model.ShippingAddress) model.ShippingAddress {
	return model.ShippingAddress{
		FullName:      strings.TrimSpace(a.FullName),
		PhoneNumber:   strings.TrimSpace(a.PhoneNumber),
		StreetAddress: strings.TrimSpace(a.StreetAddress),
		City:          strings.TrimSpace(a.City),
	}
}

func statusJSON(s model.OrderStatus) string {
	b, _ := json.Marshal(map[string]string{"orderStatus": string(s)})
	return string(b)
}
