package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, feedback *Feedback) error
	ListByLesson(ctx context.Context, db *gorm.DB, orgID, lessonID snowflake.ID) ([]Feedback, error)
	ListByStudent(ctx context.Context, db *gorm.DB, orgID, studentID snowflake.ID) ([]Feedback, error)
}
