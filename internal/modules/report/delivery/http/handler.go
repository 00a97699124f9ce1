package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/middleware"
	"anoa.com/civicreport/internal/modules/report/dto"
	report "anoa.com/civicreport/internal/modules/report/service"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service       report.ReportService
	maxUploadSize int64
}

func NewReportHandler(service report.ReportService, maxUploadSize int64) *ReportHandler {
	return &ReportHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	file, header, err := middleware.ImageFile(c, "image", h.maxUploadSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	var input dto.CreateReportInput
	if err := c.ShouldBind(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.CreateReport(c.Request.Context(), response.GetClaims(c), input, dto.ImageFile{
		Reader:   file,
		FileName: header.Filename,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ReportHandler) GetAllReports(c *gin.Context) {
	var query dto.ListReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	pageNumber := 0
	if query.PageNumber != "" {
		n, err := strconv.Atoi(query.PageNumber)
		if err != nil || n < 1 {
			response.Error(c, fmt.Errorf("pageNumber must be a positive integer: %w", apperror.ErrValidation))
			return
		}
		pageNumber = n
	}

	reports, err := h.service.ListReports(c.Request.Context(), report.BuildListQuery(pageNumber, query.Category))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	res, err := h.service.GetReport(c.Request.Context(), middleware.ID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) SearchReports(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	reports, err := h.service.SearchReports(c.Request.Context(), query.Q)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *ReportHandler) CountReports(c *gin.Context) {
	count, err := h.service.CountReports(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

func (h *ReportHandler) CountFixedReports(c *gin.Context) {
	count, err := h.service.CountFixedReports(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var input dto.UpdateReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.UpdateReport(c.Request.Context(), middleware.ID(c), response.GetClaims(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UpdatedReportResponse{UpdatedReport: *res})
}

func (h *ReportHandler) UpdateReportImage(c *gin.Context) {
	file, header, err := middleware.ImageFile(c, "image", h.maxUploadSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	res, err := h.service.UpdateReportImage(c.Request.Context(), middleware.ID(c), response.GetClaims(c), dto.ImageFile{
		Reader:   file,
		FileName: header.Filename,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UpdatedReportResponse{UpdatedReport: *res})
}

func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	var input dto.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.UpdateStatus(c.Request.Context(), middleware.ID(c), response.GetClaims(c), entity.ReportStatus(input.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) ToggleLike(c *gin.Context) {
	res, err := h.service.ToggleLike(c.Request.Context(), middleware.ID(c), response.GetClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	res, err := h.service.DeleteReport(c.Request.Context(), middleware.ID(c), response.GetClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteReportResponse{
		Message:  "report has been deleted successfully",
		ReportID: res.ReportID,
	})
}
