package dto

import "github.com/google/uuid"

type CreateCategoryRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

type CategoryFilter struct {
	Search string `form:"search"`
}

type DeleteCategoryResponse struct {
	Message    string    `json:"message"`
	CategoryID uuid.UUID `json:"categoryId"`
}
