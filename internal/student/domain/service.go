package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type CreateStudentRequest struct {
	GuardianID string
	Name       string
	Grade      string
	Subjects   string
	Notes      string
}

// Active false archives the student: they drop out of default lists
// but stay referenced by past lessons and invoices.
type UpdateStudentRequest struct {
	ID       string
	Name     *string
	Grade    *string
	Subjects *string
	Notes    *string
	Active   *bool
}

type GetStudentRequest struct {
	ID string
}

type ListStudentRequest struct {
	PageToken       string
	PageSize        int32
	GuardianID      string
	Name            string
	IncludeArchived bool
}

type ListStudentFilter struct {
	GuardianID      string
	Name            string
	IncludeArchived bool
}

type ListStudentResponse struct {
	pagination.PageInfo
	Students []Student `json:"students"`
}

type Service interface {
	Create(context.Context, CreateStudentRequest) (Student, error)
	List(context.Context, ListStudentRequest) (ListStudentResponse, error)
	GetByID(context.Context, GetStudentRequest) (Student, error)
	Update(context.Context, UpdateStudentRequest) (Student, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidGuardian     = errors.New("invalid_guardian")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
