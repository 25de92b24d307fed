package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatusPending is the status of a freshly placed order.
const OrderStatusPending = "pending"

// Order is the model for the 'orders' table
type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	UserID      string      `json:"userId" gorm:"size:36;not null;index"`
	CartID      *string     `json:"cartId,omitempty" gorm:"size:36"`
	Status      string      `json:"status" gorm:"size:32;not null;default:pending"`
	TotalAmount float64     `json:"totalAmount" gorm:"not null;default:0"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	User        *User       `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Items       []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is the model for the 'order_items' table
type OrderItem struct {
	ID        string   `json:"id" gorm:"primaryKey;size:36"`
	OrderID   string   `json:"orderId" gorm:"size:36;not null;index"`
	ProductID string   `json:"productId" gorm:"size:36;not null;index"`
	Size      *string  `json:"size,omitempty" gorm:"size:64"`
	Quantity  int      `json:"quantity" gorm:"not null"`
	Price     float64  `json:"price" gorm:"not null"` // Price at the time it entered the cart
	Product   *Product `json:"product,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
