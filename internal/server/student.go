package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	studentdomain "github.com/smallbiznis/tutorledger/internal/student/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type createStudentRequest struct {
	GuardianID string `json:"guardian_id"`
	Name       string `json:"name"`
	Grade      string `json:"grade"`
	Subjects   string `json:"subjects"`
	Notes      string `json:"notes"`
}

func (s *Server) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.studentSvc.Create(c.Request.Context(), studentdomain.CreateStudentRequest{
		GuardianID: strings.TrimSpace(req.GuardianID),
		Name:       strings.TrimSpace(req.Name),
		Grade:      strings.TrimSpace(req.Grade),
		Subjects:   strings.TrimSpace(req.Subjects),
		Notes:      req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStudents(c *gin.Context) {
	var query struct {
		pagination.Pagination
		GuardianID      string `form:"guardian_id"`
		Name            string `form:"name"`
		IncludeArchived bool   `form:"include_archived"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.studentSvc.List(c.Request.Context(), studentdomain.ListStudentRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		GuardianID:      strings.TrimSpace(query.GuardianID),
		Name:            strings.TrimSpace(query.Name),
		IncludeArchived: query.IncludeArchived,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStudentByID(c *gin.Context) {
	resp, err := s.studentSvc.GetByID(c.Request.Context(), studentdomain.GetStudentRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateStudentRequest struct {
	Name     *string `json:"name"`
	Grade    *string `json:"grade"`
	Subjects *string `json:"subjects"`
	Notes    *string `json:"notes"`
	Active   *bool   `json:"active"`
}

func (s *Server) UpdateStudent(c *gin.Context) {
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.studentSvc.Update(c.Request.Context(), studentdomain.UpdateStudentRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Name:     req.Name,
		Grade:    req.Grade,
		Subjects: req.Subjects,
		Notes:    req.Notes,
		Active:   req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
