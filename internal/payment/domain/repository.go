package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListByInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]Payment, error)
	SumByInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (float64, error)
}
