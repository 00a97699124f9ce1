package dto

import (
	"io"
	"time"

	"anoa.com/civicreport/internal/entity"
	"github.com/google/uuid"
)

type ImageFile struct {
	Reader   io.Reader
	FileName string
}

// ListQuery is the store query a listing request resolves to. A zero Limit
// means no limit. Results are always newest first.
type ListQuery struct {
	Category string
	Offset   int
	Limit    int
}

type ListReportsQuery struct {
	PageNumber string `form:"pageNumber"`
	Category   string `form:"category"`
}

type SearchQuery struct {
	Q string `form:"q" binding:"required,max=200"`
}

type CreateReportInput struct {
	Title       string `form:"title" binding:"required,min=2,max=200"`
	Description string `form:"description" binding:"required,min=10"`
	Category    string `form:"category" binding:"required,max=100"`
}

type UpdateReportInput struct {
	Title       *string `json:"title" binding:"omitempty,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,min=10"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	Status      *string `json:"status" binding:"omitempty,report_status"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required,report_status"`
}

type ReportResponse struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	UserID      uuid.UUID           `json:"user_id"`
	User        *entity.User        `json:"user,omitempty"`
	Image       entity.Image        `json:"image"`
	Likes       []uuid.UUID         `json:"likes"`
	Status      entity.ReportStatus `json:"status"`
	Comments    []entity.Comment    `json:"comments,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func NewReportResponse(r *entity.Report) ReportResponse {
	return ReportResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		UserID:      r.UserID,
		User:        r.User,
		Image:       r.Image,
		Likes:       r.LikedBy(),
		Status:      r.Status,
		Comments:    r.Comments,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func NewReportResponses(reports []entity.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, NewReportResponse(&reports[i]))
	}
	return out
}

type DeleteReportResponse struct {
	Message  string    `json:"message"`
	ReportID uuid.UUID `json:"reportId"`
}

type UpdatedReportResponse struct {
	UpdatedReport ReportResponse `json:"updatedReport"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
