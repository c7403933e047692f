package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/clock"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/smallbiznis/tutorledger/internal/student/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	GuardianRepo guardiandomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	guardianRepo guardiandomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("student.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		guardianRepo: p.GuardianRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateStudentRequest) (domain.Student, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Student{}, domain.ErrInvalidOrganization
	}

	guardianID, err := snowflake.ParseString(strings.TrimSpace(req.GuardianID))
	if err != nil {
		return domain.Student{}, domain.ErrInvalidGuardian
	}
	guardian, err := s.guardianRepo.FindByID(ctx, s.db, orgID, guardianID)
	if err != nil {
		return domain.Student{}, err
	}
	if guardian == nil {
		return domain.Student{}, domain.ErrInvalidGuardian
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Student{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	student := domain.Student{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		GuardianID: guardianID,
		Name:       name,
		Grade:      strings.TrimSpace(req.Grade),
		Subjects:   strings.TrimSpace(req.Subjects),
		Active:     true,
		Notes:      strings.TrimSpace(req.Notes),
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &student); err != nil {
		return domain.Student{}, err
	}

	return student, nil
}

func (s *Service) List(ctx context.Context, req domain.ListStudentRequest) (domain.ListStudentResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListStudentResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListStudentFilter{
		GuardianID:      strings.TrimSpace(req.GuardianID),
		Name:            strings.TrimSpace(req.Name),
		IncludeArchived: req.IncludeArchived,
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
		return domain.ListStudentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(student *domain.Student) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        student.ID.String(),
			CreatedAt: student.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	students := make([]domain.Student, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		students = append(students, *item)
	}

	resp := domain.ListStudentResponse{Students: students}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetStudentRequest) (domain.Student, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Student{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Student{}, domain.ErrInvalidID
	}

	student, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Student{}, err
	}
	if student == nil {
		return domain.Student{}, domain.ErrNotFound
	}
	return *student, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateStudentRequest) (domain.Student, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Student{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Student{}, domain.ErrInvalidID
	}

	student, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Student{}, err
	}
	if student == nil {
		return domain.Student{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Student{}, domain.ErrInvalidName
		}
		student.Name = name
	}
	if req.Grade != nil {
		student.Grade = strings.TrimSpace(*req.Grade)
	}
	if req.Subjects != nil {
		student.Subjects = strings.TrimSpace(*req.Subjects)
	}
	if req.Notes != nil {
		student.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Active != nil {
		student.Active = *req.Active
	}

	student.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, student); err != nil {
		return domain.Student{}, err
	}
	return *student, nil
}
