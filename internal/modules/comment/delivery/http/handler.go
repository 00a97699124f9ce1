package handler

import (
	"net/http"

	"anoa.com/civicreport/internal/middleware"
	"anoa.com/civicreport/internal/modules/comment/dto"
	comment "anoa.com/civicreport/internal/modules/comment/service"
	"anoa.com/civicreport/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service comment.CommentService
}

func NewCommentHandler(service comment.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input dto.CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	created, err := h.service.CreateComment(c.Request.Context(), response.GetClaims(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CommentHandler) GetAllComments(c *gin.Context) {
	comments, err := h.service.GetAllComments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var input dto.UpdateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	updated, err := h.service.UpdateComment(c.Request.Context(), middleware.ID(c), response.GetClaims(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id := middleware.ID(c)
	if err := h.service.DeleteComment(c.Request.Context(), id, response.GetClaims(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "comment has been deleted",
		"commentId": id,
	})
}
