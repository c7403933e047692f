package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/feedback/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, feedback *domain.Feedback) error {
	return db.WithContext(ctx).Create(feedback).Error
}

func (r *repo) ListByLesson(ctx context.Context, db *gorm.DB, orgID, lessonID snowflake.ID) ([]domain.Feedback, error) {
	var feedback []domain.Feedback
	err := db.WithContext(ctx).
		Where("org_id = ? AND lesson_id = ?", orgID, lessonID).
		Order("created_at asc, id asc").
		Find(&feedback).Error
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *repo) ListByStudent(ctx context.Context, db *gorm.DB, orgID, studentID snowflake.ID) ([]domain.Feedback, error) {
	var feedback []domain.Feedback
	err := db.WithContext(ctx).
		Where("org_id = ? AND student_id = ?", orgID, studentID).
		Order("created_at asc, id asc").
		Find(&feedback).Error
	if err != nil {
		return nil, err
	}
	return feedback, nil
}
