package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/civicreport/internal/entity"
	deletion "anoa.com/civicreport/internal/modules/deletion/service"
	"anoa.com/civicreport/internal/modules/report/dto"
	"anoa.com/civicreport/internal/modules/report/repository"
	"anoa.com/civicreport/internal/policy"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/ratelimiter"
	"anoa.com/civicreport/pkg/sanitize"
	"anoa.com/civicreport/pkg/storage"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const searchLimit = 20

// ReportIndexer keeps the full text search index in step with the store.
type ReportIndexer interface {
	IndexReport(report *entity.Report) error
	DeleteReport(id uuid.UUID) error
	SearchReports(ctx context.Context, q string, limit int64) ([]uuid.UUID, error)
}

type Notifier interface {
	Notify(ctx context.Context, notification *entity.Notification) error
}

type ReportService interface {
	CreateReport(ctx context.Context, claims *token.Claims, input dto.CreateReportInput, image dto.ImageFile) (*dto.ReportResponse, error)
	ListReports(ctx context.Context, query dto.ListQuery) ([]dto.ReportResponse, error)
	GetReport(ctx context.Context, id uuid.UUID) (*dto.ReportResponse, error)
	SearchReports(ctx context.Context, q string) ([]dto.ReportResponse, error)
	CountReports(ctx context.Context) (int64, error)
	CountFixedReports(ctx context.Context) (int64, error)
	UpdateReport(ctx context.Context, id uuid.UUID, claims *token.Claims, input dto.UpdateReportInput) (*dto.ReportResponse, error)
	UpdateReportImage(ctx context.Context, id uuid.UUID, claims *token.Claims, image dto.ImageFile) (*dto.ReportResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, claims *token.Claims, status entity.ReportStatus) (*dto.ReportResponse, error)
	ToggleLike(ctx context.Context, id uuid.UUID, claims *token.Claims) (*dto.ReportResponse, error)
	DeleteReport(ctx context.Context, id uuid.UUID, claims *token.Claims) (*deletion.ReportDeletion, error)
}

type service struct {
	repo         repository.ReportRepository
	imageStorage storage.ImageStorage
	uploadFolder string
	deleter      deletion.Service
	index        ReportIndexer
	notifier     Notifier
	redisClient  *redis.Client
	createLimit  time.Duration
}

// NewService wires the report service. index, notifier and redisClient are
// optional and may be nil.
func NewService(
	repo repository.ReportRepository,
	imageStorage storage.ImageStorage,
	uploadFolder string,
	deleter deletion.Service,
	index ReportIndexer,
	notifier Notifier,
	redisClient *redis.Client,
	createLimit time.Duration,
) ReportService {
	return &service{
		repo:         repo,
		imageStorage: imageStorage,
		uploadFolder: uploadFolder,
		deleter:      deleter,
		index:        index,
		notifier:     notifier,
		redisClient:  redisClient,
		createLimit:  createLimit,
	}
}

func (s *service) CreateReport(ctx context.Context, claims *token.Claims, input dto.CreateReportInput, image dto.ImageFile) (*dto.ReportResponse, error) {
	if err := policy.Authorize(claims, policy.Authenticated, uuid.Nil); err != nil {
		return nil, err
	}

	release, err := ratelimiter.Acquire(ctx, s.redisClient, claims.UserID, ratelimiter.ScopeReport, s.createLimit)
	if err != nil {
		return nil, err
	}

	report, err := s.createReport(ctx, claims.UserID, input, image)
	if err != nil {
		release()
		return nil, err
	}

	s.indexReport(report)
	res := dto.NewReportResponse(report)
	return &res, nil
}

func (s *service) createReport(ctx context.Context, owner uuid.UUID, input dto.CreateReportInput, image dto.ImageFile) (*entity.Report, error) {
	title, description, category := sanitize.Text(input.Title), sanitize.Text(input.Description), sanitize.Text(input.Category)
	if err := validateFields(title, description, category); err != nil {
		return nil, err
	}

	uploaded, err := s.imageStorage.UploadImage(ctx, image.Reader, s.uploadFolder+"/reports", image.FileName)
	if err != nil {
		return nil, err
	}

	report := &entity.Report{
		Title:       title,
		Description: description,
		Category:    category,
		UserID:      owner,
		Image:       entity.Image{URL: uploaded.URL, PublicID: &uploaded.PublicID},
		Status:      entity.StatusOpen,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, report.ID)
}

func (s *service) ListReports(ctx context.Context, query dto.ListQuery) ([]dto.ReportResponse, error) {
	reports, err := s.repo.FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	return dto.NewReportResponses(reports), nil
}

func (s *service) GetReport(ctx context.Context, id uuid.UUID) (*dto.ReportResponse, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewReportResponse(report)
	return &res, nil
}

func (s *service) SearchReports(ctx context.Context, q string) ([]dto.ReportResponse, error) {
	q = sanitize.Text(q)
	if q == "" {
		return nil, fmt.Errorf("search query is required: %w", apperror.ErrValidation)
	}

	if s.index == nil {
		reports, err := s.repo.SearchByTitle(ctx, q, searchLimit)
		if err != nil {
			return nil, err
		}
		return dto.NewReportResponses(reports), nil
	}

	ids, err := s.index.SearchReports(ctx, q, searchLimit)
	if err != nil {
		return nil, err
	}

	reports, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return dto.NewReportResponses(orderByIDs(reports, ids)), nil
}

func (s *service) CountReports(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *service) CountFixedReports(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, entity.StatusFixed)
}

func (s *service) UpdateReport(ctx context.Context, id uuid.UUID, claims *token.Claims, input dto.UpdateReportInput) (*dto.ReportResponse, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(claims, policy.OwnerOnly, report.UserID); err != nil {
		return nil, err
	}

	if title := sanitize.Optional(input.Title); title != nil {
		report.Title = *title
	}
	if description := sanitize.Optional(input.Description); description != nil {
		report.Description = *description
	}
	if category := sanitize.Optional(input.Category); category != nil {
		report.Category = *category
	}
	if input.Status != nil {
		status := entity.ReportStatus(*input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("invalid status: %w", apperror.ErrValidation)
		}
		report.Status = status
	}
	if err := validateFields(report.Title, report.Description, report.Category); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	return s.reloadAndIndex(ctx, report.ID)
}

func (s *service) UpdateReportImage(ctx context.Context, id uuid.UUID, claims *token.Claims, image dto.ImageFile) (*dto.ReportResponse, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(claims, policy.OwnerOnly, report.UserID); err != nil {
		return nil, err
	}

	if report.Image.HasRemote() {
		if err := s.imageStorage.DeleteImage(ctx, *report.Image.PublicID); err != nil {
			return nil, err
		}
	}

	uploaded, err := s.imageStorage.UploadImage(ctx, image.Reader, s.uploadFolder+"/reports", image.FileName)
	if err != nil {
		return nil, err
	}

	report.Image = entity.Image{URL: uploaded.URL, PublicID: &uploaded.PublicID}
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	return s.reloadAndIndex(ctx, report.ID)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, claims *token.Claims, status entity.ReportStatus) (*dto.ReportResponse, error) {
	if err := policy.Authorize(claims, policy.AdminOnly, uuid.Nil); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %w", apperror.ErrValidation)
	}

	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := report.Status
	report.Status = status
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	if previous != status && report.UserID != claims.UserID {
		s.notify(ctx, &entity.Notification{
			RecipientID: report.UserID,
			ActorID:     claims.UserID,
			ReportID:    report.ID,
			Content:     fmt.Sprintf("the status of your report %q changed to %s", report.Title, status),
		})
	}

	return s.reloadAndIndex(ctx, report.ID)
}

func (s *service) ToggleLike(ctx context.Context, id uuid.UUID, claims *token.Claims) (*dto.ReportResponse, error) {
	if err := policy.Authorize(claims, policy.Authenticated, uuid.Nil); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	if _, err := s.repo.ToggleLike(ctx, id, claims.UserID); err != nil {
		return nil, err
	}

	return s.GetReport(ctx, id)
}

func (s *service) DeleteReport(ctx context.Context, id uuid.UUID, claims *token.Claims) (*deletion.ReportDeletion, error) {
	result, err := s.deleter.DeleteReport(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.DeleteReport(result.ReportID); err != nil {
			slog.Warn("failed to unindex report", "report_id", result.ReportID, "error", err)
		}
	}

	return result, nil
}
