// Package deletion sequences the multi-store deletes for reports and users.
//
// Steps run strictly in order with no transaction around them. The first
// failing step aborts the sequence and is named in the returned *StepError.
// Effects of earlier steps stay committed: a crash between releasing remote
// images and deleting the rows can leave dangling references, and one
// between deleting reports and deleting comments can leave orphaned comments.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/policy"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
)

type ReportStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type CommentStore interface {
	DeleteByReportID(ctx context.Context, reportID uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ImageHost interface {
	DeleteImage(ctx context.Context, publicID string) error
	DeleteImages(ctx context.Context, publicIDs []string) error
}

const (
	OpDeleteReport = "delete_report"
	OpDeleteUser   = "delete_user"
)

// Step names reported in StepError.
const (
	StepDeleteReportRecord  = "delete_report_record"
	StepReleaseReportImage  = "release_report_image"
	StepDeleteReportComment = "delete_report_comments"

	StepLoadUserReports     = "load_user_reports"
	StepReleaseReportImages = "release_report_images"
	StepReleaseProfilePhoto = "release_profile_photo"
	StepDeleteUserReports   = "delete_user_reports"
	StepDeleteUserComments  = "delete_user_comments"
	StepDeleteUserRecord    = "delete_user_record"
)

// StepError names the step of a deletion sequence that failed. Every step
// before it has already been applied.
type StepError struct {
	Operation string
	Step      string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed at step %s: %v", e.Operation, e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{apperror.ErrUpstream, e.Err}
}

type ReportDeletion struct {
	ReportID uuid.UUID `json:"id"`
}

type UserDeletion struct {
	UserID uuid.UUID `json:"id"`
	// ReportIDs lists the reports removed with the user.
	ReportIDs []uuid.UUID `json:"report_ids"`
}

type Service interface {
	DeleteReport(ctx context.Context, reportID uuid.UUID, claims *token.Claims) (*ReportDeletion, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, claims *token.Claims) (*UserDeletion, error)
}

type service struct {
	reports  ReportStore
	comments CommentStore
	users    UserStore
	images   ImageHost
}

func NewService(reports ReportStore, comments CommentStore, users UserStore, images ImageHost) Service {
	return &service{
		reports:  reports,
		comments: comments,
		users:    users,
		images:   images,
	}
}

func (s *service) DeleteReport(ctx context.Context, reportID uuid.UUID, claims *token.Claims) (*ReportDeletion, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, loadError("report", err)
	}

	if err := policy.Authorize(claims, policy.DeleteOwn, report.UserID); err != nil {
		return nil, err
	}

	if err := s.reports.Delete(ctx, report.ID); err != nil {
		return nil, stepFailed(OpDeleteReport, StepDeleteReportRecord, err)
	}

	if report.Image.HasRemote() {
		if err := s.images.DeleteImage(ctx, *report.Image.PublicID); err != nil {
			return nil, stepFailed(OpDeleteReport, StepReleaseReportImage, err)
		}
	}

	if err := s.comments.DeleteByReportID(ctx, report.ID); err != nil {
		return nil, stepFailed(OpDeleteReport, StepDeleteReportComment, err)
	}

	return &ReportDeletion{ReportID: report.ID}, nil
}

func (s *service) DeleteUser(ctx context.Context, userID uuid.UUID, claims *token.Claims) (*UserDeletion, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, loadError("user", err)
	}

	if err := policy.Authorize(claims, policy.DeleteOwn, user.ID); err != nil {
		return nil, err
	}

	reports, err := s.reports.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, stepFailed(OpDeleteUser, StepLoadUserReports, err)
	}

	reportIDs := make([]uuid.UUID, 0, len(reports))
	publicIDs := make([]string, 0, len(reports))
	for _, report := range reports {
		reportIDs = append(reportIDs, report.ID)
		if report.Image.HasRemote() {
			publicIDs = append(publicIDs, *report.Image.PublicID)
		}
	}

	if len(publicIDs) > 0 {
		if err := s.images.DeleteImages(ctx, publicIDs); err != nil {
			return nil, stepFailed(OpDeleteUser, StepReleaseReportImages, err)
		}
	}

	if user.ProfilePhoto.HasRemote() {
		if err := s.images.DeleteImage(ctx, *user.ProfilePhoto.PublicID); err != nil {
			return nil, stepFailed(OpDeleteUser, StepReleaseProfilePhoto, err)
		}
	}

	if err := s.reports.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, stepFailed(OpDeleteUser, StepDeleteUserReports, err)
	}

	if err := s.comments.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, stepFailed(OpDeleteUser, StepDeleteUserComments, err)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return nil, stepFailed(OpDeleteUser, StepDeleteUserRecord, err)
	}

	return &UserDeletion{UserID: user.ID, ReportIDs: reportIDs}, nil
}

func loadError(resource string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("%s not found: %w", resource, apperror.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w: %v", resource, apperror.ErrUpstream, err)
}

func stepFailed(op, step string, err error) error {
	slog.Error("deletion step failed", "operation", op, "step", step, "error", err)
	return &StepError{Operation: op, Step: step, Err: err}
}
