package domain

import "errors"

// Fixed messages written onto the job record by the timeout and delivery
// failure paths. Callers key off status, not the text.
const (
	TimeoutErrorMessage  = "agent did not respond before the job deadline"
	DeliveryErrorMessage = "failed to deliver prompt to the agent conversation"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownAgent    = errors.New("agent not found")
	ErrNoDefaultAgent  = errors.New("no default agent configured")
	ErrAdmissionFailed = errors.New("could not open conversation for job")
	ErrUnauthorized    = errors.New("caller is not authorized")

	// Poll surface errors; distinct so callers can tell agent failure
	// from their own polling budget running out.
	ErrJobFailed     = errors.New("job failed")
	ErrJobTimedOut   = errors.New("job timed out")
	ErrPollExhausted = errors.New("poll attempts exhausted before job reached a terminal status")
)
