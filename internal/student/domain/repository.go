package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, student *Student) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Student, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListStudentFilter, page pagination.Pagination) ([]*Student, error)
	Update(ctx context.Context, db *gorm.DB, student *Student) error
}
