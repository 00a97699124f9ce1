package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	StatusOpen        ReportStatus = "Open"
	StatusFixed       ReportStatus = "Fixed"
	StatusUnderReview ReportStatus = "Under Review"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusFixed, StatusUnderReview:
		return true
	}
	return false
}

type Report struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string       `gorm:"size:200;not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Category    string       `gorm:"size:100;not null;index" json:"category"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Image       Image        `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Likes       []ReportLike `gorm:"foreignKey:ReportID" json:"-"`
	Status      ReportStatus `gorm:"size:20;not null" json:"status"`
	Comments    []Comment    `gorm:"foreignKey:ReportID" json:"comments,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	if r.Status == "" {
		r.Status = StatusOpen
	}
	return
}

// LikedBy returns the ids of the users that currently like the report.
func (r *Report) LikedBy() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Likes))
	for _, like := range r.Likes {
		ids = append(ids, like.UserID)
	}
	return ids
}

// ReportLike is one membership of a report's like set. The composite primary
// key keeps a user from appearing twice.
type ReportLike struct {
	ReportID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"report_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
