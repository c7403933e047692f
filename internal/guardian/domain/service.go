package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type CreateGuardianRequest struct {
	Name              string
	Email             string
	Phone             string
	HourlyRate        *float64
	TransferFeeMode   string
	TransferFeeAmount *float64
	TransferFeeWaived *bool
	Notes             string
}

type UpdateGuardianRequest struct {
	ID                string
	Name              *string
	Email             *string
	Phone             *string
	HourlyRate        *float64
	TransferFeeMode   *string
	TransferFeeAmount *float64
	TransferFeeWaived *bool
	Notes             *string
}

type GetGuardianRequest struct {
	ID string
}

type ListGuardianRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListGuardianFilter struct {
	Name        string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListGuardianResponse struct {
	pagination.PageInfo
	Guardians []Guardian `json:"guardians"`
}

type Service interface {
	Create(context.Context, CreateGuardianRequest) (Guardian, error)
	List(context.Context, ListGuardianRequest) (ListGuardianResponse, error)
	GetByID(context.Context, GetGuardianRequest) (Guardian, error)
	Update(context.Context, UpdateGuardianRequest) (Guardian, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrInvalidFeeMode      = errors.New("invalid_fee_mode")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
