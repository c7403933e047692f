package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tutorledger/internal/clock"
	"github.com/smallbiznis/tutorledger/internal/feedback/domain"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	LessonRepo lessondomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	lessonRepo lessondomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("feedback.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		lessonRepo: p.LessonRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateFeedbackRequest) (domain.Feedback, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Feedback{}, domain.ErrInvalidOrganization
	}

	lessonID, err := snowflake.ParseString(strings.TrimSpace(req.LessonID))
	if err != nil {
		return domain.Feedback{}, domain.ErrInvalidID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return domain.Feedback{}, domain.ErrInvalidRating
	}

	lesson, err := s.lessonRepo.FindByID(ctx, s.db, orgID, lessonID)
	if err != nil {
		return domain.Feedback{}, err
	}
	if lesson == nil {
		return domain.Feedback{}, domain.ErrInvalidLesson
	}

	now := s.clock.Now()
	feedback := domain.Feedback{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		LessonID:  lessonID,
		StudentID: lesson.StudentID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &feedback); err != nil {
		return domain.Feedback{}, err
	}
	return feedback, nil
}

func (s *Service) List(ctx context.Context, req domain.ListFeedbackRequest) ([]domain.Feedback, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	switch {
	case strings.TrimSpace(req.LessonID) != "":
		lessonID, err := snowflake.ParseString(strings.TrimSpace(req.LessonID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		return s.repo.ListByLesson(ctx, s.db, orgID, lessonID)
	case strings.TrimSpace(req.StudentID) != "":
		studentID, err := snowflake.ParseString(strings.TrimSpace(req.StudentID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		return s.repo.ListByStudent(ctx, s.db, orgID, studentID)
	default:
		return nil, domain.ErrMissingFilter
	}
}
