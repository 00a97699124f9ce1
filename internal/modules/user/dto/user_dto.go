package dto

import (
	"io"

	"anoa.com/civicreport/internal/entity"
	reportdto "anoa.com/civicreport/internal/modules/report/dto"
	"github.com/google/uuid"
)

// PhotoFile is an uploaded image handed from the handler to the service.
type PhotoFile struct {
	Reader   io.Reader
	FileName string
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,min=5,max=100,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,min=5,max=100,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResponse struct {
	ID           uuid.UUID    `json:"id"`
	IsAdmin      bool         `json:"is_admin"`
	ProfilePhoto entity.Image `json:"profile_photo"`
	Token        string       `json:"token"`
	Username     string       `json:"username"`
}

type UpdateProfileInput struct {
	Username *string `json:"username" binding:"omitempty,min=2,max=100"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
}

// ProfileResponse is a user together with the reports they own.
type ProfileResponse struct {
	entity.User
	Reports []reportdto.ReportResponse `json:"reports"`
}

type PhotoUploadResponse struct {
	Message      string       `json:"message"`
	ProfilePhoto entity.Image `json:"profile_photo"`
}
