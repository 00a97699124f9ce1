package dto

import "github.com/google/uuid"

type CreateCommentInput struct {
	ReportID uuid.UUID `json:"report_id" binding:"required"`
	Text     string    `json:"text" binding:"required,max=2000"`
}

type UpdateCommentInput struct {
	Text string `json:"text" binding:"required,max=2000"`
}
