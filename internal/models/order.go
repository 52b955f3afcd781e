package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "in progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusCompleted, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether an order in status s may move to next.
// Every valid status is reachable from every other, and there is no terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s.Valid() && next.Valid()
}

type Order struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"buyerId"`
	SellerID uuid.UUID `gorm:"type:uuid;not null;index" json:"sellerId"`
	GigID    uuid.UUID `gorm:"type:uuid;not null;index" json:"gigId"`

	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'in progress';index" json:"status"`
	PricingTier PricingTier `gorm:"type:varchar(20);not null" json:"pricingTier"`

	// Snapshot of the gig tier price at creation. Nothing updates it afterwards.
	Price float64 `gorm:"not null" json:"price"`

	DeliveryFiles datatypes.JSONSlice[string] `json:"deliveryFiles"`
	DeliveryText  string                      `gorm:"type:text" json:"deliveryText"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Buyer  *User `gorm:"foreignKey:BuyerID" json:"-"`
	Seller *User `gorm:"foreignKey:SellerID" json:"-"`
	Gig    *Gig  `gorm:"foreignKey:GigID" json:"-"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}
