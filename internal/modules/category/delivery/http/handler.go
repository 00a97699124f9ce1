package handler

import (
	"net/http"

	"anoa.com/civicreport/internal/middleware"
	"anoa.com/civicreport/internal/modules/category/dto"
	category "anoa.com/civicreport/internal/modules/category/service"
	"anoa.com/civicreport/pkg/response"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	service category.CategoryService
}

func NewCategoryHandler(service category.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	created, err := h.service.CreateCategory(c.Request.Context(), response.GetClaims(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *CategoryHandler) GetAllCategories(c *gin.Context) {
	var filter dto.CategoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	categories, err := h.service.GetAllCategories(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id := middleware.ID(c)
	if err := h.service.DeleteCategory(c.Request.Context(), response.GetClaims(c), id); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteCategoryResponse{
		Message:    "category has been deleted successfully",
		CategoryID: id,
	})
}
