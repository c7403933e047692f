package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice, items []InvoiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	FindItems(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]InvoiceItem, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	UpdateCoverage(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateAmounts(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdatePayment(ctx context.Context, db *gorm.DB, invoice *Invoice) error
}
