package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tutorledger/internal/clock"
	"github.com/smallbiznis/tutorledger/internal/feedback/domain"
	"github.com/smallbiznis/tutorledger/internal/feedback/repository"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	lessonrepository "github.com/smallbiznis/tutorledger/internal/lesson/repository"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newFeedbackTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, context.Context, snowflake.ID) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&lessondomain.Lesson{}, &domain.Feedback{}))

	node, err := snowflake.NewNode(3)
	assert.NoError(t, err)

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2026, 4, 6, 18, 0, 0, 0, time.UTC)),
		Repo:       repository.Provide(),
		LessonRepo: lessonrepository.Provide(),
	})

	orgID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return svc, db, node, ctx, orgID
}

func TestCreateFeedback_TakesStudentFromLesson(t *testing.T) {
	svc, db, node, ctx, orgID := newFeedbackTestService(t)

	startsAt := time.Date(2026, 4, 6, 16, 0, 0, 0, time.UTC)
	lesson := lessondomain.Lesson{
		ID:              node.Generate(),
		OrgID:           orgID,
		StudentID:       node.Generate(),
		GuardianID:      node.Generate(),
		Status:          lessondomain.StatusCompleted,
		StartsAt:        &startsAt,
		DurationMinutes: 60,
	}
	assert.NoError(t, db.Create(&lesson).Error)

	created, err := svc.Create(ctx, domain.CreateFeedbackRequest{
		LessonID: lesson.ID.String(),
		Rating:   4,
		Comment:  "Solid session",
	})
	assert.NoError(t, err)
	assert.Equal(t, lesson.StudentID, created.StudentID)
	assert.Equal(t, 4, created.Rating)

	byLesson, err := svc.List(ctx, domain.ListFeedbackRequest{LessonID: lesson.ID.String()})
	assert.NoError(t, err)
	assert.Len(t, byLesson, 1)

	byStudent, err := svc.List(ctx, domain.ListFeedbackRequest{StudentID: lesson.StudentID.String()})
	assert.NoError(t, err)
	assert.Len(t, byStudent, 1)
}

func TestCreateFeedback_RejectsOutOfRangeRating(t *testing.T) {
	svc, db, node, ctx, orgID := newFeedbackTestService(t)

	lesson := lessondomain.Lesson{
		ID:         node.Generate(),
		OrgID:      orgID,
		StudentID:  node.Generate(),
		GuardianID: node.Generate(),
		Status:     lessondomain.StatusCompleted,
	}
	assert.NoError(t, db.Create(&lesson).Error)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, domain.CreateFeedbackRequest{
			LessonID: lesson.ID.String(),
			Rating:   rating,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	}
}

func TestCreateFeedback_UnknownLesson(t *testing.T) {
	svc, _, node, ctx, _ := newFeedbackTestService(t)

	_, err := svc.Create(ctx, domain.CreateFeedbackRequest{
		LessonID: node.Generate().String(),
		Rating:   5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLesson)
}

func TestListFeedback_RequiresFilter(t *testing.T) {
	svc, _, _, ctx, _ := newFeedbackTestService(t)

	_, err := svc.List(ctx, domain.ListFeedbackRequest{})
	assert.ErrorIs(t, err, domain.ErrMissingFilter)
}
