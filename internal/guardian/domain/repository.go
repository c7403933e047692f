package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, guardian *Guardian) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Guardian, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListGuardianFilter, page pagination.Pagination) ([]*Guardian, error)
	Update(ctx context.Context, db *gorm.DB, guardian *Guardian) error
}
