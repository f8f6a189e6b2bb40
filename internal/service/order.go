package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/observability"
	"github.com/timmy/gemstore/internal/repository"
	"gorm.io/datatypes"
)

// OrderService handles checkout and the order status lifecycle.
type OrderService struct {
	orders *repository.OrderRepository
}

// NewOrderService creates a new order service.
func NewOrderService(orders *repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// CheckoutRequest carries shipping details for a new order.
type CheckoutRequest struct {
	ShippingName  string `json:"shipping_name"`
	ShippingEmail string `json:"shipping_email"`
}

// Checkout turns the owner's cart into a pending order.
func (s *OrderService) Checkout(ctx context.Context, ownerID string, req CheckoutRequest) (*domain.Order, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	order := &domain.Order{
		ShippingName:  strings.TrimSpace(req.ShippingName),
		ShippingEmail: strings.TrimSpace(req.ShippingEmail),
	}
	if err := s.orders.Checkout(ctx, ownerID, order); err != nil {
		if errors.Is(err, repository.ErrEmptyCart) || errors.Is(err, repository.ErrItemUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("checkout failed: %w", err)
	}
	ctx = logger.SetOrderID(ctx, order.ID)
	logger.With(logger.Fields{
		logger.FieldCount: len(order.Items),
		logger.FieldTotal: order.TotalAmount,
	}).Info(ctx, "Order created")
	return order, nil
}

// Get returns an order visible to ownerID. Other owners' orders are reported
// as not found; admins see every order.
func (s *OrderService) Get(ctx context.Context, id, ownerID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "order "+id)
	}
	if order.OwnerID != ownerID && !auth.PrincipalFrom(ctx).IsAdmin() {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, nil
}

// List returns the owner's most recent orders.
func (s *OrderService) List(ctx context.Context, ownerID string, limit int) ([]domain.Order, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByOwner(ctx, ownerID, limit)
}

// Events returns the order's append-only event log.
func (s *OrderService) Events(ctx context.Context, id, ownerID string) ([]domain.OrderEvent, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}
	events, err := s.orders.Events(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order events: %w", err)
	}
	return events, nil
}

// UpdateStatus moves an order to a new status. Admin only. Setting the
// current status again records no event.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status, note string) (*domain.Order, error) {
	if !auth.PrincipalFrom(ctx).IsAdmin() {
		return nil, ErrAccessDenied
	}
	target, err := domain.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	meta := map[string]interface{}{}
	if note = strings.TrimSpace(note); note != "" {
		meta["note"] = note
	}
	if p := auth.PrincipalFrom(ctx); p != nil {
		meta["actor"] = p.UserID
	}
	return s.transition(ctx, id, target, meta)
}

// SimulatePayment records a fake payment reference and confirms a pending order.
func (s *OrderService) SimulatePayment(ctx context.Context, id, ownerID string) (*domain.Order, error) {
	order, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, invalidInput("order %s is %s, only pending orders can be paid", id, order.Status)
	}

	ref := "sim_" + uuid.New().String()
	if err := s.orders.SetPaymentRef(ctx, id, ref); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	updated, err := s.transition(ctx, id, domain.OrderStatusConfirmed, map[string]interface{}{
		"payment_ref": ref,
		"simulated":   true,
	})
	if err != nil {
		return nil, err
	}
	updated.PaymentRef = &ref
	return updated, nil
}

func (s *OrderService) transition(ctx context.Context, id string, target domain.OrderStatus, meta map[string]interface{}) (*domain.Order, error) {
	var metadata datatypes.JSON
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	order, changed, err := s.orders.UpdateStatus(ctx, id, target, metadata)
	if err != nil {
		return nil, mapNotFound(err, "order "+id)
	}
	if changed {
		observability.OrderStatusChanges.WithLabelValues(string(target)).Inc()
		logger.CtxInfo(logger.SetOrderID(ctx, id), "Order status changed to %s", target)
	}
	return order, nil
}
