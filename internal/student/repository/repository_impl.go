package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/student/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/option"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, student *domain.Student) error {
	return db.WithContext(ctx).Create(student).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Student, error) {
	var student domain.Student
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&student).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListStudentFilter, page pagination.Pagination) ([]*domain.Student, error) {
	var students []*domain.Student
	stmt := db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("org_id = ?", orgID)
	if filter.GuardianID != "" {
		stmt = stmt.Where("guardian_id = ?", filter.GuardianID)
	}
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if !filter.IncludeArchived {
		stmt = stmt.Where("active = ?", true)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, student *domain.Student) error {
	return db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("org_id = ? AND id = ?", student.OrgID, student.ID).
		Updates(map[string]any{
			"name":       student.Name,
			"grade":      student.Grade,
			"subjects":   student.Subjects,
			"active":     student.Active,
			"notes":      student.Notes,
			"updated_at": student.UpdatedAt,
		}).Error
}
