package domain

import (
	"context"
	"errors"
)

type CreateFeedbackRequest struct {
	LessonID string
	Rating   int
	Comment  string
}

type ListFeedbackRequest struct {
	LessonID  string
	StudentID string
}

type Service interface {
	Create(context.Context, CreateFeedbackRequest) (Feedback, error)
	List(context.Context, ListFeedbackRequest) ([]Feedback, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidRating       = errors.New("invalid_rating")
	ErrInvalidLesson       = errors.New("invalid_lesson")
	ErrMissingFilter       = errors.New("missing_filter")
)
