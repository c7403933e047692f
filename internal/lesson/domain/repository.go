package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lesson *Lesson) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Lesson, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListLessonFilter, page pagination.Pagination) ([]*Lesson, error)
	// ListCompletedByGuardian returns the guardian's completed lessons in
	// chronological order; this is the fresher source the invoice totals
	// endpoint prefers over stored invoice items.
	ListCompletedByGuardian(ctx context.Context, db *gorm.DB, orgID, guardianID snowflake.ID) ([]*Lesson, error)
	Update(ctx context.Context, db *gorm.DB, lesson *Lesson) error
}
