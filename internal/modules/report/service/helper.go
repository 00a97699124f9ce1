package report

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/modules/report/dto"
	"anoa.com/civicreport/pkg/apperror"
	"github.com/google/uuid"
)

// validateFields re-checks lengths after sanitizing, since stripping markup
// can shorten a value that passed binding.
func validateFields(title, description, category string) error {
	switch {
	case utf8.RuneCountInString(title) < 2:
		return fmt.Errorf("title must be at least 2 characters: %w", apperror.ErrValidation)
	case utf8.RuneCountInString(title) > 200:
		return fmt.Errorf("title must be at most 200 characters: %w", apperror.ErrValidation)
	case utf8.RuneCountInString(description) < 10:
		return fmt.Errorf("description must be at least 10 characters: %w", apperror.ErrValidation)
	case category == "":
		return fmt.Errorf("category is required: %w", apperror.ErrValidation)
	}
	return nil
}

func (s *service) reloadAndIndex(ctx context.Context, id uuid.UUID) (*dto.ReportResponse, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexReport(report)
	res := dto.NewReportResponse(report)
	return &res, nil
}

// indexReport is best effort. The store stays the source of truth.
func (s *service) indexReport(report *entity.Report) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexReport(report); err != nil {
		slog.Warn("failed to index report", "report_id", report.ID, "error", err)
	}
}

func (s *service) notify(ctx context.Context, notification *entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		slog.Warn("failed to send notification", "recipient_id", notification.RecipientID, "error", err)
	}
}

// orderByIDs returns reports in the order of ids, dropping ids the store no
// longer has.
func orderByIDs(reports []entity.Report, ids []uuid.UUID) []entity.Report {
	byID := make(map[uuid.UUID]entity.Report, len(reports))
	for _, r := range reports {
		byID[r.ID] = r
	}
	ordered := make([]entity.Report, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered
}
