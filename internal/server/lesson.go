package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type createLessonRequest struct {
	StudentID       string   `json:"student_id"`
	Subject         string   `json:"subject"`
	StartsAt        string   `json:"starts_at"`
	DurationMinutes int      `json:"duration_minutes"`
	Rate            *float64 `json:"rate"`
	Amount          *float64 `json:"amount"`
	Description     string   `json:"description"`
}

func (s *Server) CreateLesson(c *gin.Context) {
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startsAt, err := parseOptionalTime(req.StartsAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("starts_at", "invalid_starts_at", "invalid starts_at"))
		return
	}

	resp, err := s.lessonSvc.Create(c.Request.Context(), lessondomain.CreateLessonRequest{
		StudentID:       strings.TrimSpace(req.StudentID),
		Subject:         strings.TrimSpace(req.Subject),
		StartsAt:        startsAt,
		DurationMinutes: req.DurationMinutes,
		Rate:            req.Rate,
		Amount:          req.Amount,
		Description:     req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListLessons(c *gin.Context) {
	var query struct {
		pagination.Pagination
		StudentID  string `form:"student_id"`
		GuardianID string `form:"guardian_id"`
		Status     string `form:"status"`
		From       string `form:"from"`
		To         string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.lessonSvc.List(c.Request.Context(), lessondomain.ListLessonRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		StudentID:  strings.TrimSpace(query.StudentID),
		GuardianID: strings.TrimSpace(query.GuardianID),
		Status:     strings.TrimSpace(query.Status),
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLessonByID(c *gin.Context) {
	resp, err := s.lessonSvc.GetByID(c.Request.Context(), lessondomain.GetLessonRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateLessonRequest struct {
	Subject         *string  `json:"subject"`
	Status          *string  `json:"status"`
	StartsAt        *string  `json:"starts_at"`
	DurationMinutes *int     `json:"duration_minutes"`
	Rate            *float64 `json:"rate"`
	Amount          *float64 `json:"amount"`
	Description     *string  `json:"description"`
}

func (s *Server) UpdateLesson(c *gin.Context) {
	var req updateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := lessondomain.UpdateLessonRequest{
		ID:              strings.TrimSpace(c.Param("id")),
		Subject:         req.Subject,
		Status:          req.Status,
		DurationMinutes: req.DurationMinutes,
		Rate:            req.Rate,
		Amount:          req.Amount,
		Description:     req.Description,
	}
	if req.StartsAt != nil {
		startsAt, err := parseOptionalTime(*req.StartsAt, false)
		if err != nil {
			AbortWithError(c, newValidationError("starts_at", "invalid_starts_at", "invalid starts_at"))
			return
		}
		update.StartsAt = startsAt
	}

	resp, err := s.lessonSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
