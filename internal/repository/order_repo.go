package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/timmy/gemstore/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// ErrItemUnavailable is returned when a cart line references a gemstone that
// is gone, unpriced or out of stock.
var ErrItemUnavailable = errors.New("cart item unavailable")

// OrderRepository persists orders together with their append-only event log.
// Every write to orders.status goes through UpdateStatus.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order, its items and the "created" event in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createOrder(tx, order)
	})
}

func createOrder(tx *gorm.DB, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if _, err := domain.ParseOrderStatus(string(order.Status)); err != nil {
		return err
	}
	if err := tx.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	event := domain.OrderEvent{
		OrderID:   order.ID,
		EventType: domain.OrderEventCreated,
		ToStatus:  order.Status,
		Severity:  domain.SeverityInfo,
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to append order event: %w", err)
	}
	return nil
}

// UpdateStatus moves an order to a new status and appends exactly one
// status_changed event. Setting the current status again is a no-op that
// writes no event.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: order ID.
//   - status: target status.
//   - metadata: optional JSON stored on the event.
// Returns:
//   - *domain.Order: the order after the call.
//   - bool: true when the status actually changed.
//   - error: gorm.ErrRecordNotFound when missing, domain.ErrInvalidStatus for unknown statuses.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, metadata datatypes.JSON) (*domain.Order, bool, error) {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, false, err
	}

	var order domain.Order
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if order.Status == status {
			return nil
		}

		from := order.Status
		// compare-and-set so concurrent updates cannot both record the same transition
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s changed concurrently", id)
		}

		event := domain.OrderEvent{
			OrderID:    id,
			EventType:  domain.OrderEventStatusChanged,
			FromStatus: &from,
			ToStatus:   status,
			Severity:   domain.SeverityFor(status),
			Metadata:   metadata,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to append order event: %w", err)
		}
		order.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &order, changed, nil
}

// SetPaymentRef records a (simulated) payment reference without touching status.
func (r *OrderRepository) SetPaymentRef(ctx context.Context, id, ref string) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("payment_ref", ref).Error
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByOwner returns an owner's orders, newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// Events returns an order's event log in insertion order.
func (r *OrderRepository) Events(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	var events []domain.OrderEvent
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&events).Error
	return events, err
}

// Checkout converts an owner's cart into a pending order and empties the cart,
// all in one transaction. Prices are taken from the gemstones at checkout time.
func (r *OrderRepository) Checkout(ctx context.Context, ownerID string, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []domain.CartItem
		if err := tx.Preload("Gemstone").Where("owner_id = ?", ownerID).Order("id ASC").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		order.OwnerID = ownerID
		order.Status = domain.OrderStatusPending
		order.Items = order.Items[:0]
		order.TotalAmount = 0
		for _, line := range lines {
			g := line.Gemstone
			if g == nil || g.PriceAmount <= 0 || !g.InStock {
				return fmt.Errorf("%w: %s", ErrItemUnavailable, line.GemstoneID)
			}
			if order.Currency == "" {
				order.Currency = g.PriceCurrency
			}
			order.Items = append(order.Items, domain.OrderItem{
				GemstoneID: line.GemstoneID,
				Quantity:   line.Quantity,
				UnitPrice:  g.PriceAmount,
			})
			order.TotalAmount += g.PriceAmount * int64(line.Quantity)
		}

		if err := createOrder(tx, order); err != nil {
			return err
		}
		return tx.Where("owner_id = ?", ownerID).Delete(&domain.CartItem{}).Error
	})
}
