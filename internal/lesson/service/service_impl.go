package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/clock"
	"github.com/smallbiznis/tutorledger/internal/lesson/domain"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	studentdomain "github.com/smallbiznis/tutorledger/internal/student/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	StudentRepo studentdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	studentRepo studentdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("lesson.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		studentRepo: p.StudentRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLessonRequest) (domain.Lesson, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Lesson{}, domain.ErrInvalidOrganization
	}

	studentID, err := snowflake.ParseString(strings.TrimSpace(req.StudentID))
	if err != nil {
		return domain.Lesson{}, domain.ErrInvalidStudent
	}
	student, err := s.studentRepo.FindByID(ctx, s.db, orgID, studentID)
	if err != nil {
		return domain.Lesson{}, err
	}
	if student == nil {
		return domain.Lesson{}, domain.ErrInvalidStudent
	}

	if req.DurationMinutes < 0 {
		return domain.Lesson{}, domain.ErrInvalidDuration
	}

	now := s.clock.Now()
	lesson := domain.Lesson{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		StudentID:       studentID,
		GuardianID:      student.GuardianID,
		Subject:         strings.TrimSpace(req.Subject),
		Status:          domain.StatusScheduled,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Rate:            req.Rate,
		Amount:          req.Amount,
		Description:     strings.TrimSpace(req.Description),
		Metadata:        datatypes.JSONMap{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &lesson); err != nil {
		return domain.Lesson{}, err
	}

	return lesson, nil
}

func (s *Service) List(ctx context.Context, req domain.ListLessonRequest) (domain.ListLessonResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListLessonResponse{}, domain.ErrInvalidOrganization
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && !validStatus(status) {
		return domain.ListLessonResponse{}, domain.ErrInvalidStatus
	}

	filter := domain.ListLessonFilter{
		StudentID:  strings.TrimSpace(req.StudentID),
		GuardianID: strings.TrimSpace(req.GuardianID),
		Status:     status,
		From:       req.From,
		To:         req.To,
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
		return domain.ListLessonResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(lesson *domain.Lesson) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        lesson.ID.String(),
			CreatedAt: lesson.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	lessons := make([]domain.Lesson, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		lessons = append(lessons, *item)
	}

	resp := domain.ListLessonResponse{Lessons: lessons}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetLessonRequest) (domain.Lesson, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Lesson{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Lesson{}, domain.ErrInvalidID
	}

	lesson, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Lesson{}, err
	}
	if lesson == nil {
		return domain.Lesson{}, domain.ErrNotFound
	}
	return *lesson, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateLessonRequest) (domain.Lesson, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Lesson{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Lesson{}, domain.ErrInvalidID
	}

	lesson, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Lesson{}, err
	}
	if lesson == nil {
		return domain.Lesson{}, domain.ErrNotFound
	}

	if req.Subject != nil {
		lesson.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !validStatus(status) {
			return domain.Lesson{}, domain.ErrInvalidStatus
		}
		lesson.Status = domain.LessonStatus(status)
	}
	if req.StartsAt != nil {
		lesson.StartsAt = req.StartsAt
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 0 {
			return domain.Lesson{}, domain.ErrInvalidDuration
		}
		lesson.DurationMinutes = *req.DurationMinutes
	}
	if req.Rate != nil {
		lesson.Rate = req.Rate
	}
	if req.Amount != nil {
		lesson.Amount = req.Amount
	}
	if req.Description != nil {
		lesson.Description = strings.TrimSpace(*req.Description)
	}

	lesson.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, lesson); err != nil {
		return domain.Lesson{}, err
	}
	return *lesson, nil
}

func (s *Service) CompletedByGuardian(ctx context.Context, guardianID string) ([]domain.Lesson, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(guardianID))
	if err != nil {
		return nil, domain.ErrInvalidGuardian
	}

	items, err := s.repo.ListCompletedByGuardian(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}

	lessons := make([]domain.Lesson, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		lessons = append(lessons, *item)
	}
	return lessons, nil
}

func validStatus(status string) bool {
	switch domain.LessonStatus(status) {
	case domain.StatusScheduled, domain.StatusCompleted, domain.StatusCancelled:
		return true
	default:
		return false
	}
}
