// Package domain contains order models consumed by tier evaluation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderStatus represents order fulfilment states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// Order is a purchase record. Tier evaluation reads completed orders only;
// this core never writes orders. Amounts are minor currency units.
type Order struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID `gorm:"not null;index" json:"user_id"`
	Status         OrderStatus  `gorm:"type:text;not null" json:"status"`
	TotalAmount    int64        `gorm:"not null" json:"total_amount"`
	DiscountAmount int64        `gorm:"not null;default:0" json:"discount_amount"`
	FinalAmount    *int64       `gorm:"" json:"final_amount,omitempty"`
	Currency       string       `gorm:"type:text;not null;default:USD" json:"currency"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// EffectiveAmount is the amount that counts toward spend metrics: the final
// amount when recorded, the gross total otherwise.
func (o Order) EffectiveAmount() int64 {
	if o.FinalAmount != nil {
		return *o.FinalAmount
	}
	return o.TotalAmount
}
