// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message is a direct message between two users, optionally tied to an order.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair" json:"senderId"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair" json:"receiverId"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	OrderID    *uuid.UUID `gorm:"type:uuid;index" json:"orderId,omitempty"`

	Attachments datatypes.JSONSlice[string] `json:"attachments"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
