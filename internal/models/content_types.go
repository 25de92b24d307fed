package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Promotion is a banner shown between AppearanceDate and CloseDate while active.
type Promotion struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Title          string    `json:"title" gorm:"size:255;not null"`
	ImageURL       string    `json:"imageUrl" gorm:"size:1024;not null"`
	Description    *string   `json:"description,omitempty" gorm:"type:text"`
	AppearanceDate time.Time `json:"appearanceDate" gorm:"not null;index"`
	CloseDate      time.Time `json:"closeDate" gorm:"not null;index"`
	IsActive       bool      `json:"isActive" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// News is a short storefront announcement, listed by Order.
type News struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Content   *string   `json:"content,omitempty" gorm:"type:text"`
	Link      *string   `json:"link,omitempty" gorm:"size:1024"`
	IsActive  bool      `json:"isActive" gorm:"not null"`
	Order     int       `json:"order" gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (News) TableName() string { return "news" }

func (n *News) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// AppConfigID is the primary key of the only app_configs row.
const AppConfigID = "app-config"

// AppConfig holds storefront-wide settings.
type AppConfig struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	AboutUs   *string   `json:"aboutUs" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
