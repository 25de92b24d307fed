package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart defines the struct for the 'carts' table. One cart per user.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	UserID    string     `json:"userId" gorm:"size:36;not null;uniqueIndex"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	User      *User      `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Items     []CartItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CartItem defines the struct for the 'cart_items' table.
// ProductID always references a VARIANT record; Price is the unit price captured when the
// line was first added.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CartID    string    `json:"cartId" gorm:"size:36;not null;index;uniqueIndex:idx_cart_items_line,priority:1"`
	ProductID string    `json:"productId" gorm:"size:36;not null;index"`
	Size      *string   `json:"size,omitempty" gorm:"size:64"`
	// LineKey is product id + size; one line per key and cart.
	LineKey   string    `json:"-" gorm:"size:120;not null;uniqueIndex:idx_cart_items_line,priority:2"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Price     float64   `json:"price" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Product   *Product  `json:"product,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.LineKey == "" {
		i.LineKey = CartLineKey(i.ProductID, i.Size)
	}
	return nil
}

// CartLineKey identifies a cart line by product and size. A nil size keys as "".
func CartLineKey(productID string, size *string) string {
	if size == nil {
		return productID + "\x1f"
	}
	return productID + "\x1f" + *size
}

// LineTotal is Price × Quantity.
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}
