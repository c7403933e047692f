package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tutorledger/internal/clock"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	guardianrepository "github.com/smallbiznis/tutorledger/internal/guardian/repository"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/smallbiznis/tutorledger/internal/student/domain"
	"github.com/smallbiznis/tutorledger/internal/student/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newStudentTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, context.Context, snowflake.ID) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&guardiandomain.Guardian{}, &domain.Student{}))

	node, err := snowflake.NewNode(4)
	assert.NoError(t, err)

	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)),
		Repo:         repository.Provide(),
		GuardianRepo: guardianrepository.Provide(),
	})

	orgID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return svc, db, node, ctx, orgID
}

func seedTestGuardian(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID) guardiandomain.Guardian {
	t.Helper()

	guardian := guardiandomain.Guardian{
		ID:       node.Generate(),
		OrgID:    orgID,
		Name:     "Dana Whitfield",
		Email:    "dana@example.com",
		Metadata: datatypes.JSONMap{},
	}
	assert.NoError(t, db.Create(&guardian).Error)
	return guardian
}

func TestCreateStudent_ActiveByDefault(t *testing.T) {
	svc, db, node, ctx, orgID := newStudentTestService(t)
	guardian := seedTestGuardian(t, db, node, orgID)

	created, err := svc.Create(ctx, domain.CreateStudentRequest{
		GuardianID: guardian.ID.String(),
		Name:       "Mia Whitfield",
		Grade:      "7",
	})
	assert.NoError(t, err)
	assert.True(t, created.Active)
}

func TestUpdateStudent_ArchiveHidesFromDefaultList(t *testing.T) {
	svc, db, node, ctx, orgID := newStudentTestService(t)
	guardian := seedTestGuardian(t, db, node, orgID)

	created, err := svc.Create(ctx, domain.CreateStudentRequest{
		GuardianID: guardian.ID.String(),
		Name:       "Theo Whitfield",
	})
	assert.NoError(t, err)

	archived := false
	updated, err := svc.Update(ctx, domain.UpdateStudentRequest{
		ID:     created.ID.String(),
		Active: &archived,
	})
	assert.NoError(t, err)
	assert.False(t, updated.Active)

	resp, err := svc.List(ctx, domain.ListStudentRequest{GuardianID: guardian.ID.String()})
	assert.NoError(t, err)
	assert.Len(t, resp.Students, 0)

	resp, err = svc.List(ctx, domain.ListStudentRequest{
		GuardianID:      guardian.ID.String(),
		IncludeArchived: true,
	})
	assert.NoError(t, err)
	assert.Len(t, resp.Students, 1)
}

func TestCreateStudent_UnknownGuardian(t *testing.T) {
	svc, _, node, ctx, _ := newStudentTestService(t)

	_, err := svc.Create(ctx, domain.CreateStudentRequest{
		GuardianID: node.Generate().String(),
		Name:       "Orphaned Row",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGuardian)
}
