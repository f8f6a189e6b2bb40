package repository

import (
	"context"

	"github.com/timmy/gemstore/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is a thin CRUD wrapper over cart_items.
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new CartRepository.
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Add inserts a line or increases the quantity of an existing one.
func (r *CartRepository) Add(ctx context.Context, ownerID, gemstoneID string, quantity int) error {
	item := domain.CartItem{OwnerID: ownerID, GemstoneID: gemstoneID, Quantity: quantity}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "gemstone_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&item).Error
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
// Returns gorm.ErrRecordNotFound when the line does not exist.
func (r *CartRepository) SetQuantity(ctx context.Context, ownerID, gemstoneID string, quantity int) error {
	if quantity <= 0 {
		return r.Remove(ctx, ownerID, gemstoneID)
	}
	res := r.db.WithContext(ctx).Model(&domain.CartItem{}).
		Where("owner_id = ? AND gemstone_id = ?", ownerID, gemstoneID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Remove deletes one line.
func (r *CartRepository) Remove(ctx context.Context, ownerID, gemstoneID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND gemstone_id = ?", ownerID, gemstoneID).
		Delete(&domain.CartItem{}).Error
}

// List returns an owner's cart with gemstones preloaded.
func (r *CartRepository) List(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := r.db.WithContext(ctx).
		Preload("Gemstone").
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// Clear removes every line of an owner's cart.
func (r *CartRepository) Clear(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&domain.CartItem{}).Error
}
