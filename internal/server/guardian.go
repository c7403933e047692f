package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type createGuardianRequest struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	HourlyRate        *float64 `json:"hourly_rate"`
	TransferFeeMode   string   `json:"transfer_fee_mode"`
	TransferFeeAmount *float64 `json:"transfer_fee_amount"`
	TransferFeeWaived *bool    `json:"transfer_fee_waived"`
	Notes             string   `json:"notes"`
}

func (s *Server) CreateGuardian(c *gin.Context) {
	var req createGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.guardianSvc.Create(c.Request.Context(), guardiandomain.CreateGuardianRequest{
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.TrimSpace(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		HourlyRate:        req.HourlyRate,
		TransferFeeMode:   strings.TrimSpace(req.TransferFeeMode),
		TransferFeeAmount: req.TransferFeeAmount,
		TransferFeeWaived: req.TransferFeeWaived,
		Notes:             req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGuardians(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name        string `form:"name"`
		Email       string `form:"email"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.guardianSvc.List(c.Request.Context(), guardiandomain.ListGuardianRequest{
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
		Name:        strings.TrimSpace(query.Name),
		Email:       strings.TrimSpace(query.Email),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetGuardianByID(c *gin.Context) {
	resp, err := s.guardianSvc.GetByID(c.Request.Context(), guardiandomain.GetGuardianRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateGuardianRequest struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email"`
	Phone             *string  `json:"phone"`
	HourlyRate        *float64 `json:"hourly_rate"`
	TransferFeeMode   *string  `json:"transfer_fee_mode"`
	TransferFeeAmount *float64 `json:"transfer_fee_amount"`
	TransferFeeWaived *bool    `json:"transfer_fee_waived"`
	Notes             *string  `json:"notes"`
}

func (s *Server) UpdateGuardian(c *gin.Context) {
	var req updateGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.guardianSvc.Update(c.Request.Context(), guardiandomain.UpdateGuardianRequest{
		ID:                strings.TrimSpace(c.Param("id")),
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		HourlyRate:        req.HourlyRate,
		TransferFeeMode:   req.TransferFeeMode,
		TransferFeeAmount: req.TransferFeeAmount,
		TransferFeeWaived: req.TransferFeeWaived,
		Notes:             req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
