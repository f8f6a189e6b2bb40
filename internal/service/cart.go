package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/repository"
)

const maxCartQuantity = 99

// CartService manages carts keyed by session or user id.
type CartService struct {
	carts     *repository.CartRepository
	gemstones *repository.GemstoneRepository
}

// NewCartService creates a new cart service.
func NewCartService(carts *repository.CartRepository, gemstones *repository.GemstoneRepository) *CartService {
	return &CartService{carts: carts, gemstones: gemstones}
}

// Add puts quantity units of a gemstone in the cart, adding to an existing line.
func (s *CartService) Add(ctx context.Context, ownerID, gemstoneID string, quantity int) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	if quantity < 1 || quantity > maxCartQuantity {
		return invalidInput("quantity must be between 1 and %d", maxCartQuantity)
	}
	g, err := s.gemstones.GetByID(ctx, gemstoneID)
	if err != nil {
		return mapNotFound(err, "gemstone "+gemstoneID)
	}
	if !g.InStock || g.PriceAmount <= 0 {
		return invalidInput("gemstone %s is not available", gemstoneID)
	}
	if err := s.carts.Add(ctx, ownerID, gemstoneID, quantity); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// SetQuantity overwrites a line's quantity; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, ownerID, gemstoneID string, quantity int) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	if quantity < 0 || quantity > maxCartQuantity {
		return invalidInput("quantity must be between 0 and %d", maxCartQuantity)
	}
	if err := s.carts.SetQuantity(ctx, ownerID, gemstoneID, quantity); err != nil {
		return mapNotFound(err, "cart item "+gemstoneID)
	}
	return nil
}

// Remove deletes one line. Removing an absent line is not an error.
func (s *CartService) Remove(ctx context.Context, ownerID, gemstoneID string) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	return s.carts.Remove(ctx, ownerID, gemstoneID)
}

// List returns the owner's cart lines with gemstones.
func (s *CartService) List(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	items, err := s.carts.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	return s.carts.Clear(ctx, ownerID)
}

func validateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalidInput("session or user id is required")
	}
	return nil
}
