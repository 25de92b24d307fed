package cart

import (
	"time"

	"github.com/01moynul/storefront-api/internal/models"
)

// Line is a cart item with its resolved product and computed total.
type Line struct {
	models.CartItem
	LineTotal float64 `json:"lineTotal"`
}

// View is a cart as returned to callers.
type View struct {
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	User       *models.User `json:"user,omitempty"`
	Items      []Line       `json:"items"`
	Subtotal   float64      `json:"subtotal"`
	TotalItems int          `json:"totalItems"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// firstImage keeps only the leading image of p, falling back to its parent's.
func firstImage(p *models.Product) {
	if p == nil {
		return
	}
	if len(p.Images) == 0 && p.Parent != nil && len(p.Parent.Images) > 0 {
		p.Images = p.Parent.Images
	}
	if len(p.Images) > 1 {
		p.Images = p.Images[:1]
	}
	if p.Parent != nil {
		p.Parent.Images = nil
	}
}

func newView(c *models.Cart) View {
	v := View{
		ID:        c.ID,
		UserID:    c.UserID,
		User:      c.User,
		Items:     make([]Line, 0, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, item := range c.Items {
		firstImage(item.Product)
		line := Line{CartItem: item, LineTotal: item.LineTotal()}
		v.Subtotal += line.LineTotal
		v.TotalItems += item.Quantity
		v.Items = append(v.Items, line)
	}
	return v
}
