package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/pkg/sanitize"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

const reportsIndex = "reports"

// MeiliSearchService keeps the report search index in step with the store
// and answers full-text queries against it.
type MeiliSearchService interface {
	IndexReport(report *entity.Report) error
	DeleteReport(id uuid.UUID) error
	DeleteReports(ids []uuid.UUID) error
	SearchReports(ctx context.Context, q string, limit int64) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"category", "status", "user_id"}
	if _, err := s.client.Index(reportsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("failed to update reports filterable attributes", "error", err)
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(reportsIndex).UpdateSortableAttributes(&sortable); err != nil {
		slog.Warn("failed to update reports sortable attributes", "error", err)
	}

	slog.Info("meilisearch indexes initialized")
}

type meiliReportDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	CreatedAt   int64  `json:"created_at"`
}

func newReportDoc(report *entity.Report) meiliReportDoc {
	doc := meiliReportDoc{
		ID:          report.ID.String(),
		Title:       sanitize.Text(report.Title),
		Description: sanitize.Text(report.Description),
		Category:    report.Category,
		Status:      string(report.Status),
		UserID:      report.UserID.String(),
		CreatedAt:   report.CreatedAt.Unix(),
	}
	if report.User != nil {
		doc.Username = report.User.Username
	}
	return doc
}

func (s *meiliSearchService) IndexReport(report *entity.Report) error {
	task, err := s.client.Index(reportsIndex).AddDocuments([]meiliReportDoc{newReportDoc(report)}, strPtr("id"))
	if err != nil {
		return err
	}
	slog.Debug("indexed report", "report_id", report.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteReport(id uuid.UUID) error {
	_, err := s.client.Index(reportsIndex).DeleteDocument(id.String())
	return err
}

func (s *meiliSearchService) DeleteReports(ids []uuid.UUID) error {
	for _, id := range ids {
		if err := s.DeleteReport(id); err != nil {
			return fmt.Errorf("delete report %s from index: %w", id, err)
		}
	}
	return nil
}

type searchHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
}

// SearchReports returns matching report ids in relevance order.
func (s *meiliSearchService) SearchReports(ctx context.Context, q string, limit int64) ([]uuid.UUID, error) {
	raw, err := s.client.Index(reportsIndex).SearchRawWithContext(ctx, q, &meilisearch.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	var res searchHits
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
