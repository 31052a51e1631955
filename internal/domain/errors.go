package domain

import (
	"errors"
	"fmt"
)

// ErrTimerActive is returned when a second timer session is started while
// one is already running.
var ErrTimerActive = errors.New("a timer session is already active")

// ValidationError tags a rejected save with the offending field. It is always
// surfaced before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation against a nonexistent entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// CycleError reports an attempted parent/child hierarchy cycle.
type CycleError struct {
	ItemID string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("item %s would become its own ancestor", e.ItemID)
}

// SortKeyError reports a sort key outside the fixed allow-list.
type SortKeyError struct {
	Key string
}

func (e SortKeyError) Error() string {
	return fmt.Sprintf("invalid sort key %q", e.Key)
}
