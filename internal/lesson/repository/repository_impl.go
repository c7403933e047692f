package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/lesson/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/option"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lesson *domain.Lesson) error {
	return db.WithContext(ctx).Create(lesson).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Lesson, error) {
	var lesson domain.Lesson
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&lesson).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListLessonFilter, page pagination.Pagination) ([]*domain.Lesson, error) {
	var lessons []*domain.Lesson
	stmt := db.WithContext(ctx).
		Model(&domain.Lesson{}).
		Where("org_id = ?", orgID)
	if filter.StudentID != "" {
		stmt = stmt.Where("student_id = ?", filter.StudentID)
	}
	if filter.GuardianID != "" {
		stmt = stmt.Where("guardian_id = ?", filter.GuardianID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		stmt = stmt.Where("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("starts_at <= ?", *filter.To)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *repo) ListCompletedByGuardian(ctx context.Context, db *gorm.DB, orgID, guardianID snowflake.ID) ([]*domain.Lesson, error) {
	var lessons []*domain.Lesson
	err := db.WithContext(ctx).
		Model(&domain.Lesson{}).
		Where("org_id = ? AND guardian_id = ? AND status = ?", orgID, guardianID, domain.StatusCompleted).
		Order("starts_at asc, id asc").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, lesson *domain.Lesson) error {
	return db.WithContext(ctx).
		Model(&domain.Lesson{}).
		Where("org_id = ? AND id = ?", lesson.OrgID, lesson.ID).
		Updates(map[string]any{
			"subject":          lesson.Subject,
			"status":           lesson.Status,
			"starts_at":        lesson.StartsAt,
			"duration_minutes": lesson.DurationMinutes,
			"rate":             lesson.Rate,
			"amount":           lesson.Amount,
			"description":      lesson.Description,
			"updated_at":       lesson.UpdatedAt,
		}).Error
}
