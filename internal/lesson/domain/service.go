package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type CreateLessonRequest struct {
	StudentID       string
	Subject         string
	StartsAt        *time.Time
	DurationMinutes int
	Rate            *float64
	Amount          *float64
	Description     string
}

type UpdateLessonRequest struct {
	ID              string
	Subject         *string
	Status          *string
	StartsAt        *time.Time
	DurationMinutes *int
	Rate            *float64
	Amount          *float64
	Description     *string
}

type GetLessonRequest struct {
	ID string
}

type ListLessonRequest struct {
	PageToken  string
	PageSize   int32
	StudentID  string
	GuardianID string
	Status     string
	From       *time.Time
	To         *time.Time
}

type ListLessonFilter struct {
	StudentID  string
	GuardianID string
	Status     string
	From       *time.Time
	To         *time.Time
}

type ListLessonResponse struct {
	pagination.PageInfo
	Lessons []Lesson `json:"lessons"`
}

type Service interface {
	Create(context.Context, CreateLessonRequest) (Lesson, error)
	List(context.Context, ListLessonRequest) (ListLessonResponse, error)
	GetByID(context.Context, GetLessonRequest) (Lesson, error)
	Update(context.Context, UpdateLessonRequest) (Lesson, error)
	CompletedByGuardian(ctx context.Context, guardianID string) ([]Lesson, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidStudent      = errors.New("invalid_student")
	ErrInvalidGuardian     = errors.New("invalid_guardian")
	ErrInvalidDuration     = errors.New("invalid_duration")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
