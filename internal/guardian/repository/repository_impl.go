package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/guardian/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/option"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, guardian *domain.Guardian) error {
	return db.WithContext(ctx).Create(guardian).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Guardian, error) {
	var guardian domain.Guardian
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&guardian).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &guardian, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListGuardianFilter, page pagination.Pagination) ([]*domain.Guardian, error) {
	var guardians []*domain.Guardian
	stmt := db.WithContext(ctx).
		Model(&domain.Guardian{}).
		Where("org_id = ?", orgID)
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&guardians).Error
	if err != nil {
		return nil, err
	}
	return guardians, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, guardian *domain.Guardian) error {
	return db.WithContext(ctx).
		Model(&domain.Guardian{}).
		Where("org_id = ? AND id = ?", guardian.OrgID, guardian.ID).
		Updates(map[string]any{
			"name":                guardian.Name,
			"email":               guardian.Email,
			"phone":               guardian.Phone,
			"hourly_rate":         guardian.HourlyRate,
			"transfer_fee_mode":   guardian.TransferFeeMode,
			"transfer_fee_amount": guardian.TransferFeeAmount,
			"transfer_fee_waived": guardian.TransferFeeWaived,
			"notes":               guardian.Notes,
			"updated_at":          guardian.UpdatedAt,
		}).Error
}
