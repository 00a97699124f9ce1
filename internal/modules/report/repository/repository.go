package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/modules/report/dto"
	"anoa.com/civicreport/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Report, error)
	FindAll(ctx context.Context, query dto.ListQuery) ([]entity.Report, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Report, error)
	SearchByTitle(ctx context.Context, q string, limit int) ([]entity.Report, error)
	Update(ctx context.Context, report *entity.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// ToggleLike flips the caller's membership in the like set and reports
	// whether the report is liked afterwards.
	ToggleLike(ctx context.Context, reportID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status entity.ReportStatus) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// newestFirst is the single ordering every listing uses. The id breaks ties
// between reports created in the same instant.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *reportRepository) withOwner() *gorm.DB {
	return r.db.Preload("User").Preload("Likes")
}

func (r *reportRepository) Create(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var report entity.Report
	err := r.withOwner().WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Report, error) {
	if len(ids) == 0 {
		return []entity.Report{}, nil
	}
	var reports []entity.Report
	if err := r.withOwner().WithContext(ctx).Where("id IN ?", ids).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) FindAll(ctx context.Context, query dto.ListQuery) ([]entity.Report, error) {
	db := newestFirst(r.withOwner().WithContext(ctx))

	if query.Category != "" {
		db = db.Where("category = ?", query.Category)
	}
	if query.Limit > 0 {
		db = db.Offset(query.Offset).Limit(query.Limit)
	}

	var reports []entity.Report
	if err := db.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Report, error) {
	var reports []entity.Report
	err := newestFirst(r.db.WithContext(ctx).Preload("Likes")).
		Where("user_id = ?", userID).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) SearchByTitle(ctx context.Context, q string, limit int) ([]entity.Report, error) {
	var reports []entity.Report
	err := newestFirst(r.withOwner().WithContext(ctx)).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) Update(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(report).Error
}

// Delete removes the report together with its like set.
func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&entity.ReportLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Report{}, "id = ?", id).Error
	})
}

func (r *reportRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := r.db.Model(&entity.Report{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("report_id IN (?)", owned).Delete(&entity.ReportLike{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&entity.Report{}).Error
	})
}

func (r *reportRepository) ToggleLike(ctx context.Context, reportID, userID uuid.UUID) (bool, error) {
	// Use Find with slice to avoid "record not found" log noise from GORM's First()
	var existing []entity.ReportLike
	err := r.db.WithContext(ctx).
		Where("report_id = ? AND user_id = ?", reportID, userID).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return false, err
	}

	if len(existing) > 0 {
		err := r.db.WithContext(ctx).
			Where("report_id = ? AND user_id = ?", reportID, userID).
			Delete(&entity.ReportLike{}).Error
		return false, err
	}

	like := &entity.ReportLike{ReportID: reportID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *reportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Report{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reportRepository) CountByStatus(ctx context.Context, status entity.ReportStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Report{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
