package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy rejects a second submission from a control whose request is still in flight.
	ErrBusy = errors.New("tracker: request already in progress")
	// ErrNotExpanded is returned when editing a pub whose review is not on screen.
	ErrNotExpanded  = errors.New("tracker: pub is not expanded")
	ErrUnknownPub   = errors.New("tracker: unknown pub")
	ErrInvalidVisit = errors.New("tracker: invalid visit")
)

// NetworkError is a failed request: transport error or non-2xx status.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tracker: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tracker: %s: status %d", e.Op, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataValidationError marks a pub that cannot be placed on the map.
type DataValidationError struct {
	Key    string
	Name   string
	Reason string
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("tracker: pub %s (%s): %s", e.Key, e.Name, e.Reason)
}
