package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunContext is computed once at program start and stamped into every
// persisted tick.
type RunContext struct {
	ID    string
	Start time.Time
}

func NewRunContext(now time.Time) RunContext {
	return RunContext{
		ID:    newRunID(now),
		Start: time.UnixMilli(now.UnixMilli()).UTC(), // ms precision, no monotonic
	}
}

// newRunID prefers a time-ordered v7 UUID so run IDs sort by start time.
func newRunID(now time.Time) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("run-%d", now.UnixNano())
	}
	return id.String()
}
