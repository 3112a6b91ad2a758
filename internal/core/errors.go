package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent is returned for events missing required fields
	ErrMalformedEvent = errors.New("malformed event")
	// ErrEngineClosed is returned when an event is offered after shutdown began
	ErrEngineClosed = errors.New("engine is shutting down")
	// ErrReputationUnavailable is returned by reputation stores that could not answer
	ErrReputationUnavailable = errors.New("reputation store unavailable")
	// ErrUnknownAuthor is returned by reputation stores with no record for an author
	ErrUnknownAuthor = errors.New("unknown author")
	// ErrNoCheckpoint is returned when a checkpoint namespace has never been saved
	ErrNoCheckpoint = errors.New("no checkpoint")
)

// ConfigurationError reports the threshold field that failed validation
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid threshold %s: %s", e.Field, e.Reason)
}
