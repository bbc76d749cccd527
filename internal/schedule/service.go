package schedule

import (
	"time"

	"glowbook/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Service is the scheduling engine: slot generation on the read side,
// availability and series mutations on the write side. It is stateless
// between calls; every query re-derives its output from fetched state.
type Service struct {
	repo store.SchedulingRepository
}

func NewService(repo store.SchedulingRepository) *Service {
	return &Service{repo: repo}
}

func validateWindow(windowStart, windowEnd time.Time) error {
	if !windowEnd.After(windowStart) {
		return validationError("window_end must be after window_start")
	}
	return nil
}
