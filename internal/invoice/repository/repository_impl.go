package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/invoice/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/option"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice, items []domain.InvoiceItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ?", orgID, invoiceID).
		Order("position asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ?", orgID)
	if filter.GuardianID != "" {
		stmt = stmt.Where("guardian_id = ?", filter.GuardianID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) UpdateCoverage(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND id = ?", invoice.OrgID, invoice.ID).
		Updates(map[string]any{
			"coverage_max_hours":          invoice.CoverageMaxHours,
			"coverage_end_date":           invoice.CoverageEndDate,
			"coverage_waive_transfer_fee": invoice.CoverageWaiveTransferFee,
			"updated_at":                  invoice.UpdatedAt,
		}).Error
}

func (r *repo) UpdateAmounts(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND id = ?", invoice.OrgID, invoice.ID).
		Updates(map[string]any{
			"discount":        invoice.Discount,
			"late_fee":        invoice.LateFee,
			"tip":             invoice.Tip,
			"declared_hours":  invoice.DeclaredHours,
			"declared_amount": invoice.DeclaredAmount,
			"subtotal":        invoice.Subtotal,
			"adjusted_total":  invoice.AdjustedTotal,
			"total":           invoice.Total,
			"amount":          invoice.Amount,
			"updated_at":      invoice.UpdatedAt,
		}).Error
}

func (r *repo) UpdatePayment(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND id = ?", invoice.OrgID, invoice.ID).
		Updates(map[string]any{
			"status":            invoice.Status,
			"paid_amount":       invoice.PaidAmount,
			"remaining_balance": invoice.RemainingBalance,
			"updated_at":        invoice.UpdatedAt,
		}).Error
}
