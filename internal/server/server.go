package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anoa.com/civicreport/internal/config"
	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/middleware"
	"anoa.com/civicreport/pkg/password"
	"anoa.com/civicreport/pkg/storage"
	"anoa.com/civicreport/pkg/token"
	"anoa.com/civicreport/pkg/validator"

	categoryHttp "anoa.com/civicreport/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/civicreport/internal/modules/category/repository"
	categoryService "anoa.com/civicreport/internal/modules/category/service"

	commentHttp "anoa.com/civicreport/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/civicreport/internal/modules/comment/repository"
	commentService "anoa.com/civicreport/internal/modules/comment/service"

	deletionService "anoa.com/civicreport/internal/modules/deletion/service"

	notiHttp "anoa.com/civicreport/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/civicreport/internal/modules/notification/repository"
	notifService "anoa.com/civicreport/internal/modules/notification/service"

	reportHttp "anoa.com/civicreport/internal/modules/report/delivery/http"
	reportRepo "anoa.com/civicreport/internal/modules/report/repository"
	reportService "anoa.com/civicreport/internal/modules/report/service"

	searchService "anoa.com/civicreport/internal/modules/search/service"

	userHttp "anoa.com/civicreport/internal/modules/user/delivery/http"
	userRepo "anoa.com/civicreport/internal/modules/user/repository"
	userService "anoa.com/civicreport/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the external clients the server is built on. Redis and
// Search are optional.
type Dependencies struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Images storage.ImageStorage
	Search searchService.MeiliSearchService
}

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if err := validator.RegisterEnum("report_status",
		string(entity.StatusOpen), string(entity.StatusFixed), string(entity.StatusUnderReview),
	); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	tokens, err := token.NewService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	maxUpload := cfg.MaxUploadMB << 20

	userRepository := userRepo.NewUserRepository(deps.DB)
	reportRepository := reportRepo.NewReportRepository(deps.DB)
	commentRepository := commentRepo.NewCommentRepository(deps.DB)

	deleter := deletionService.NewService(reportRepository, commentRepository, userRepository, deps.Images)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(deps.DB)
	notificationSvc := notifService.NewNotificationService(notificationRepository, deps.Redis)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, deps.Redis, originChecker(cfg.AllowedOrigins))

	authSvc := userService.NewAuthService(userRepository, hasher, tokens)
	authHandler := userHttp.NewAuthHandler(authSvc)

	profileSvc := userService.NewProfileService(
		userRepository, reportRepository, hasher, deps.Images, cfg.CloudinaryUploadFolder, deleter, reportIndex(deps.Search),
	)
	profileHandler := userHttp.NewProfileHandler(profileSvc, maxUpload)

	reportSvc := reportService.NewService(
		reportRepository, deps.Images, cfg.CloudinaryUploadFolder, deleter,
		reportIndexer(deps.Search), notificationSvc, deps.Redis, cfg.RateLimitReport,
	)
	reportHandler := reportHttp.NewReportHandler(reportSvc, maxUpload)

	commentSvc := commentService.NewCommentService(commentRepository, reportRepository, userRepository, notificationSvc)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	categorySvc := categoryService.NewCategoryService(categoryRepo.NewCategoryRepository(deps.DB))
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/notifications/ws"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	requireAuth := authMiddleware.RequireAuth()
	requireAdmin := authMiddleware.RequireAdmin()
	validID := middleware.ValidateID("id")

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	users := api.Group("/users")
	{
		users.GET("/count", requireAuth, requireAdmin, profileHandler.CountUsers)
		users.GET("/profile", requireAuth, requireAdmin, profileHandler.GetAllUsers)
		users.POST("/profile/profile-photo-upload", requireAuth, profileHandler.UploadProfilePhoto)
		users.GET("/profile/:id", validID, profileHandler.GetProfile)
		users.PUT("/profile/:id", validID, requireAuth, profileHandler.UpdateProfile)
		users.DELETE("/profile/:id", validID, requireAuth, profileHandler.DeleteProfile)
	}

	reports := api.Group("/reports")
	{
		reports.GET("", reportHandler.GetAllReports)
		reports.POST("", requireAuth, reportHandler.CreateReport)
		reports.GET("/count", reportHandler.CountReports)
		reports.GET("/count-fixed", reportHandler.CountFixedReports)
		reports.GET("/search", reportHandler.SearchReports)
		reports.GET("/:id", validID, reportHandler.GetReport)
		reports.PUT("/:id", validID, requireAuth, reportHandler.UpdateReport)
		reports.DELETE("/:id", validID, requireAuth, reportHandler.DeleteReport)
		reports.PUT("/:id/status", validID, requireAuth, requireAdmin, reportHandler.UpdateStatus)
		reports.PUT("/update-image/:id", validID, requireAuth, reportHandler.UpdateReportImage)
		reports.PUT("/like/:id", validID, requireAuth, reportHandler.ToggleLike)
	}

	comments := api.Group("/comments")
	{
		comments.POST("", requireAuth, commentHandler.CreateComment)
		comments.GET("", requireAuth, requireAdmin, commentHandler.GetAllComments)
		comments.PUT("/:id", validID, requireAuth, commentHandler.UpdateComment)
		comments.DELETE("/:id", validID, requireAuth, commentHandler.DeleteComment)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.GetAllCategories)
		categories.POST("", requireAuth, requireAdmin, categoryHandler.CreateCategory)
		categories.DELETE("/:id", validID, requireAuth, requireAdmin, categoryHandler.DeleteCategory)
	}

	notifications := api.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PUT("/:id/read", validID, notificationHandler.MarkAsRead)
		notifications.GET("/ws", notificationHandler.HandleWebSocket)
	}

	router.NoRoute(middleware.NotFound)

	return &Server{
		engine:      router,
		db:          deps.DB,
		redisClient: deps.Redis,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	slog.Info("server listening", "addr", addr)
	return s.engine.Run(addr)
}

// reportIndexer and reportIndex keep a missing search service a nil interface
// rather than a typed nil.
func reportIndexer(index searchService.MeiliSearchService) reportService.ReportIndexer {
	if index == nil {
		return nil
	}
	return index
}

func reportIndex(index searchService.MeiliSearchService) userService.ReportIndex {
	if index == nil {
		return nil
	}
	return index
}

func parseOrigins(allowedOrigins string) []string {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     parseOrigins(allowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// originChecker accepts websocket upgrades from the configured origins and
// from clients that send no Origin header.
func originChecker(allowedOrigins string) func(r *http.Request) bool {
	allowed := make(map[string]struct{})
	for _, origin := range parseOrigins(allowedOrigins) {
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
