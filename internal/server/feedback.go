package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feedbackdomain "github.com/smallbiznis/tutorledger/internal/feedback/domain"
)

type createFeedbackRequest struct {
	LessonID string `json:"lesson_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

func (s *Server) CreateFeedback(c *gin.Context) {
	var req createFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.Create(c.Request.Context(), feedbackdomain.CreateFeedbackRequest{
		LessonID: strings.TrimSpace(req.LessonID),
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeedback(c *gin.Context) {
	resp, err := s.feedbackSvc.List(c.Request.Context(), feedbackdomain.ListFeedbackRequest{
		LessonID:  strings.TrimSpace(c.Query("lesson_id")),
		StudentID: strings.TrimSpace(c.Query("student_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
