package handler

import (
	"net/http"

	"anoa.com/civicreport/internal/middleware"
	"anoa.com/civicreport/internal/modules/user/dto"
	user "anoa.com/civicreport/internal/modules/user/service"
	"anoa.com/civicreport/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService user.AuthService
}

func NewAuthHandler(authService user.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	created, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "you registered successfully, please log in",
		"data":    created,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

type ProfileHandler struct {
	profileService user.ProfileService
	maxUploadSize  int64
}

func NewProfileHandler(profileService user.ProfileService, maxUploadSize int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		maxUploadSize:  maxUploadSize,
	}
}

func (h *ProfileHandler) GetAllUsers(c *gin.Context) {
	users, err := h.profileService.GetAllUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), middleware.ID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var input dto.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), middleware.ID(c), response.GetClaims(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	if _, err := h.profileService.DeleteProfile(c.Request.Context(), middleware.ID(c), response.GetClaims(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "your profile has been deleted"})
}

func (h *ProfileHandler) UploadProfilePhoto(c *gin.Context) {
	file, header, err := middleware.ImageFile(c, "image", h.maxUploadSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	res, err := h.profileService.UploadProfilePhoto(c.Request.Context(), response.GetClaims(c), dto.PhotoFile{
		Reader:   file,
		FileName: header.Filename,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) CountUsers(c *gin.Context) {
	count, err := h.profileService.CountUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}
