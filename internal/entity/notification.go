package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChannelInApp     = "in_app"
	ChannelWebSocket = "websocket"
)

type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"` // User who receives the notification
	ActorID     uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`           // User who triggered it
	ReportID    uuid.UUID `gorm:"type:uuid;not null" json:"report_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Channel     string    `gorm:"size:20;not null" json:"channel"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	if n.Channel == "" {
		n.Channel = ChannelInApp
	}
	return
}
