package comment

import (
	"context"
	"fmt"
	"log/slog"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/modules/comment/dto"
	"anoa.com/civicreport/internal/modules/comment/repository"
	"anoa.com/civicreport/internal/policy"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/sanitize"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
)

type ReportFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, notification *entity.Notification) error
}

type CommentService interface {
	CreateComment(ctx context.Context, claims *token.Claims, input dto.CreateCommentInput) (*entity.Comment, error)
	GetAllComments(ctx context.Context) ([]entity.Comment, error)
	UpdateComment(ctx context.Context, id uuid.UUID, claims *token.Claims, input dto.UpdateCommentInput) (*entity.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID, claims *token.Claims) error
}

type commentService struct {
	repo     repository.CommentRepository
	reports  ReportFinder
	users    UserFinder
	notifier Notifier
}

func NewCommentService(repo repository.CommentRepository, reports ReportFinder, users UserFinder, notifier Notifier) CommentService {
	return &commentService{
		repo:     repo,
		reports:  reports,
		users:    users,
		notifier: notifier,
	}
}

func (s *commentService) CreateComment(ctx context.Context, claims *token.Claims, input dto.CreateCommentInput) (*entity.Comment, error) {
	if err := policy.Authorize(claims, policy.Authenticated, uuid.Nil); err != nil {
		return nil, err
	}

	text := sanitize.Text(input.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required: %w", apperror.ErrValidation)
	}

	report, err := s.reports.FindByID(ctx, input.ReportID)
	if err != nil {
		return nil, err
	}

	author, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		ReportID: report.ID,
		UserID:   author.ID,
		Username: author.Username,
		Text:     text,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if report.UserID != author.ID && s.notifier != nil {
		notification := &entity.Notification{
			RecipientID: report.UserID,
			ActorID:     author.ID,
			ReportID:    report.ID,
			Content:     fmt.Sprintf("%s commented on your report %q", author.Username, report.Title),
		}
		if err := s.notifier.Notify(ctx, notification); err != nil {
			slog.Warn("failed to send comment notification", "report_id", report.ID, "error", err)
		}
	}

	return comment, nil
}

func (s *commentService) GetAllComments(ctx context.Context) ([]entity.Comment, error) {
	return s.repo.FindAll(ctx)
}

func (s *commentService) UpdateComment(ctx context.Context, id uuid.UUID, claims *token.Claims, input dto.UpdateCommentInput) (*entity.Comment, error) {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(claims, policy.OwnerOnly, comment.UserID); err != nil {
		return nil, err
	}

	text := sanitize.Text(input.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required: %w", apperror.ErrValidation)
	}

	comment.Text = text
	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) DeleteComment(ctx context.Context, id uuid.UUID, claims *token.Claims) error {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(claims, policy.DeleteOwn, comment.UserID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, comment.ID)
}
