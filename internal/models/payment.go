package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus mirrors the gateway's payment intent status.
type PaymentStatus string

const (
	PaymentStatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentStatusRequiresConfirmation  PaymentStatus = "requires_confirmation"
	PaymentStatusRequiresAction        PaymentStatus = "requires_action"
	PaymentStatusProcessing            PaymentStatus = "processing"
	PaymentStatusSucceeded             PaymentStatus = "succeeded"
	PaymentStatusCanceled              PaymentStatus = "canceled"
	PaymentStatusFailed                PaymentStatus = "failed"
)

// Open reports whether the intent can still be completed by the client.
func (s PaymentStatus) Open() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusCanceled, PaymentStatusFailed:
		return false
	}
	return true
}

type Payment struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"orderId"`
	IntentID     string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"intentId"`
	ClientSecret string        `gorm:"type:text" json:"-"`
	Amount       int64         `gorm:"not null" json:"amount"` // minor currency units
	Currency     string        `gorm:"type:varchar(10);not null" json:"currency"`
	Status       PaymentStatus `gorm:"type:varchar(40);not null" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
