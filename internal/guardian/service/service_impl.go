package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/internal/clock"
	"github.com/smallbiznis/tutorledger/internal/guardian/domain"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("guardian.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateGuardianRequest) (domain.Guardian, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Guardian{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Guardian{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Guardian{}, domain.ErrInvalidEmail
	}

	if req.HourlyRate != nil && *req.HourlyRate <= 0 {
		return domain.Guardian{}, domain.ErrInvalidRate
	}

	feeMode, err := normalizeFeeMode(req.TransferFeeMode)
	if err != nil {
		return domain.Guardian{}, err
	}

	feeAmount := 0.0
	if req.TransferFeeAmount != nil && *req.TransferFeeAmount > 0 {
		feeAmount = *req.TransferFeeAmount
	}

	now := s.clock.Now()
	guardian := domain.Guardian{
		ID:                s.genID.Generate(),
		OrgID:             orgID,
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(req.Phone),
		HourlyRate:        req.HourlyRate,
		TransferFeeMode:   feeMode,
		TransferFeeAmount: feeAmount,
		Notes:             strings.TrimSpace(req.Notes),
		Metadata:          datatypes.JSONMap{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.TransferFeeWaived != nil {
		guardian.TransferFeeWaived = *req.TransferFeeWaived
	}

	if err := s.repo.Insert(ctx, s.db, &guardian); err != nil {
		return domain.Guardian{}, err
	}

	return guardian, nil
}

func (s *Service) List(ctx context.Context, req domain.ListGuardianRequest) (domain.ListGuardianResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListGuardianResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListGuardianFilter{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListGuardianResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(guardian *domain.Guardian) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        guardian.ID.String(),
			CreatedAt: guardian.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	guardians := make([]domain.Guardian, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		guardians = append(guardians, *item)
	}

	resp := domain.ListGuardianResponse{Guardians: guardians}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetGuardianRequest) (domain.Guardian, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Guardian{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Guardian{}, domain.ErrInvalidID
	}

	guardian, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Guardian{}, err
	}
	if guardian == nil {
		return domain.Guardian{}, domain.ErrNotFound
	}
	return *guardian, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateGuardianRequest) (domain.Guardian, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Guardian{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Guardian{}, domain.ErrInvalidID
	}

	guardian, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Guardian{}, err
	}
	if guardian == nil {
		return domain.Guardian{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Guardian{}, domain.ErrInvalidName
		}
		guardian.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return domain.Guardian{}, domain.ErrInvalidEmail
		}
		guardian.Email = email
	}
	if req.Phone != nil {
		guardian.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate <= 0 {
			return domain.Guardian{}, domain.ErrInvalidRate
		}
		guardian.HourlyRate = req.HourlyRate
	}
	if req.TransferFeeMode != nil {
		mode, err := normalizeFeeMode(*req.TransferFeeMode)
		if err != nil {
			return domain.Guardian{}, err
		}
		guardian.TransferFeeMode = mode
	}
	if req.TransferFeeAmount != nil {
		if *req.TransferFeeAmount < 0 {
			return domain.Guardian{}, domain.ErrInvalidRate
		}
		guardian.TransferFeeAmount = *req.TransferFeeAmount
	}
	if req.TransferFeeWaived != nil {
		guardian.TransferFeeWaived = *req.TransferFeeWaived
	}
	if req.Notes != nil {
		guardian.Notes = strings.TrimSpace(*req.Notes)
	}

	guardian.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, guardian); err != nil {
		return domain.Guardian{}, err
	}
	return *guardian, nil
}

func normalizeFeeMode(mode string) (string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "":
		return string(billingdomain.FeeModeFixed), nil
	case string(billingdomain.FeeModeFixed), string(billingdomain.FeeModePercent):
		return mode, nil
	default:
		return "", domain.ErrInvalidFeeMode
	}
}
