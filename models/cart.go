package models

import (
	"time"
)

type Cart struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	IdentityKey string     `gorm:"type:varchar(191);not null;uniqueIndex:idx_cart_scope" json:"identity_key"`
	TenantCode  string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_cart_scope" json:"tenant_code"`
	Lines       []CartLine `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"lines"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

// CartLine is one order line. (ProductID, PortionLabel) is the merge key:
// adding the same product in the same portion increments Quantity instead of
// appending a second line. UnitPrice is fixed when the line is first added.
type CartLine struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CartID       uint      `gorm:"index;not null" json:"cart_id"`
	ProductID    uint      `gorm:"not null" json:"product_id"`
	PortionLabel string    `gorm:"type:varchar(100);not null" json:"portion_label"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	UnitPrice    float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Note         string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// FindLine -> the line matching the merge key, or nil
func (c *Cart) FindLine(productID uint, portionLabel string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].PortionLabel == portionLabel {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, line := range c.Lines {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}
