package domain

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ErrInvalidStatus is returned for an order status outside the known set.
var ErrInvalidStatus = errors.New("invalid order status")

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusConfirmed:  {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := orderStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// EventSeverity classifies an order event for display.
type EventSeverity string

const (
	SeverityInfo    EventSeverity = "info"
	SeveritySuccess EventSeverity = "success"
	SeverityWarning EventSeverity = "warning"
)

// Event types written to the order event log.
const (
	OrderEventCreated       = "created"
	OrderEventStatusChanged = "status_changed"
)

// SeverityFor maps a status to its event severity.
func SeverityFor(status OrderStatus) EventSeverity {
	switch status {
	case OrderStatusDelivered:
		return SeveritySuccess
	case OrderStatusCancelled, OrderStatusRefunded:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Order is a placed order. Status changes go through the repository so that
// each one is paired with exactly one OrderEvent.
type Order struct {
	ID            string      `gorm:"type:text;primaryKey" json:"id"`
	OwnerID       string      `gorm:"type:text;not null;index:idx_orders_owner" json:"owner_id"`
	Status        OrderStatus `gorm:"type:text;not null;default:pending;index:idx_orders_status" json:"status"`
	TotalAmount   int64       `gorm:"not null;default:0" json:"total_amount"`
	Currency      string      `gorm:"type:text;not null;default:USD" json:"currency"`
	PaymentRef    *string     `gorm:"type:text" json:"payment_ref,omitempty"`
	ShippingName  string      `gorm:"type:text" json:"shipping_name,omitempty"`
	ShippingEmail string      `gorm:"type:text" json:"shipping_email,omitempty"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one gemstone line of an order, priced at checkout time.
type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    string `gorm:"type:text;not null;index:idx_order_items_order" json:"order_id"`
	GemstoneID string `gorm:"type:text;not null" json:"gemstone_id"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	UnitPrice  int64  `gorm:"not null" json:"unit_price"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderEvent is an immutable entry in an order's history.
type OrderEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    string         `gorm:"type:text;not null;index:idx_order_events_order" json:"order_id"`
	EventType  string         `gorm:"type:text;not null" json:"event_type"`
	FromStatus *OrderStatus   `gorm:"type:text" json:"from_status,omitempty"`
	ToStatus   OrderStatus    `gorm:"type:text;not null" json:"to_status"`
	Severity   EventSeverity  `gorm:"type:text;not null" json:"severity"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName returns the database table name for OrderEvent.
func (OrderEvent) TableName() string {
	return "order_events"
}
