package domain

import "errors"

var (
	// ErrQuizNotFound indicates no answer-key source knows the quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrLinkNotFound is returned for an unknown link token.
	ErrLinkNotFound = errors.New("link not found")
	// ErrSubmissionNotFound is returned for an unknown submission id.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrCapacityExceeded is returned when a link has no remaining seats.
	ErrCapacityExceeded = errors.New("link capacity exceeded")
	// ErrDuplicateSubmission is returned when the same student identity
	// resubmits through the same link.
	ErrDuplicateSubmission = errors.New("duplicate submission")
	// ErrInvalidCapacity is returned when a link is created with a
	// non-positive seat count.
	ErrInvalidCapacity = errors.New("capacity must be positive")
)
