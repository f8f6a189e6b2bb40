package domain

import "time"

// CartItem is one line of a shopping cart. OwnerID is a user id or an
// anonymous session id; (owner, gemstone) is unique.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerID    string    `gorm:"type:text;not null;uniqueIndex:idx_cart_items_owner_gemstone,priority:1" json:"owner_id"`
	GemstoneID string    `gorm:"type:text;not null;uniqueIndex:idx_cart_items_owner_gemstone,priority:2" json:"gemstone_id"`
	Quantity   int       `gorm:"not null;default:1" json:"quantity"`
	Gemstone   *Gemstone `gorm:"foreignKey:GemstoneID" json:"gemstone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for CartItem.
func (CartItem) TableName() string {
	return "cart_items"
}
