package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultProfilePhotoURL = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_960_720.png"

// Image references a picture stored on the remote image host. PublicID stays
// nil until something has actually been uploaded.
type Image struct {
	URL      string  `gorm:"type:text" json:"url"`
	PublicID *string `gorm:"size:255" json:"public_id"`
}

// HasRemote reports whether the image is backed by a remote resource that
// must be released when the image is replaced or deleted.
func (i Image) HasRemote() bool {
	return i.PublicID != nil && *i.PublicID != ""
}

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username          string    `gorm:"size:100;not null" json:"username"`
	Email             string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	ProfilePhoto      Image     `gorm:"embedded;embeddedPrefix:profile_photo_" json:"profile_photo"`
	Bio               string    `gorm:"size:500" json:"bio"`
	IsAdmin           bool      `gorm:"default:false" json:"is_admin"`
	IsAccountVerified bool      `gorm:"default:false" json:"is_account_verified"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.ProfilePhoto.URL == "" {
		u.ProfilePhoto.URL = DefaultProfilePhotoURL
	}
	return nil
}
