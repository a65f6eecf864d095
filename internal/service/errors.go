package service

import (
	"errors"

	"timedquiz/internal/model"
)

var (
	ErrTestNotFound       = errors.New("test not found")
	ErrTestInactive       = errors.New("test not active")
	ErrSessionNotFound    = errors.New("invalid test session")
	ErrQuestionNotFound   = errors.New("invalid question")
	ErrTimeExpired        = errors.New("time limit for this question has expired")
	ErrAlreadyCompleted   = errors.New("test already completed")
	ErrMissingIdentifiers = errors.New("userId and topicId are required")
	ErrHistoryUnavailable = errors.New("result history is not configured")
)

// Kind classifies service errors so transports can pick a status code
type Kind string

const (
	KindNone             Kind = ""
	KindNotFound         Kind = "NotFound"
	KindInactiveTest     Kind = "InactiveTest"
	KindAlreadyCompleted Kind = "AlreadyCompleted"
	KindExpired          Kind = "Expired"
	KindInvalid          Kind = "Invalid"
	KindUnavailable      Kind = "Unavailable"
	KindInternal         Kind = "Internal"
)

// KindOf resolves an error returned by this package to its kind
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTestNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrQuestionNotFound):
		return KindNotFound
	case errors.Is(err, ErrTestInactive):
		return KindInactiveTest
	case errors.Is(err, ErrAlreadyCompleted):
		return KindAlreadyCompleted
	case errors.Is(err, ErrTimeExpired):
		return KindExpired
	case errors.Is(err, ErrMissingIdentifiers),
		errors.Is(err, model.ErrInvalidAnswer):
		return KindInvalid
	case errors.Is(err, ErrHistoryUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}
