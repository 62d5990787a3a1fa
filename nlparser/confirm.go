package nlparser

import (
	"time"

	"github.com/driftlog/aiops/types"
)

// Overrides lets a caller correct any field of a ParseResult before
// confirming it, e.g. after a clarification round-trip.
type Overrides struct {
	ProjectID       *string
	TaskID          *string
	DurationSeconds *int
	StartTime       *time.Time
	Description     *string
}

// ConfirmedEntry is the finalized, validated shape of a time entry
// derived from a ParseResult. This subsystem has no time-entry write
// port (CRUD is excluded from scope), so Confirm validates and returns
// the entry a caller should pass to the collaborator's own create
// operation rather than persisting it itself.
type ConfirmedEntry struct {
	ProjectID       string
	TaskID          string
	DurationSeconds int
	StartTime       time.Time
	EndTime         *time.Time
	Description     string
}

// Confirm merges userOverrides onto parseResult and validates the
// result: a project is always required, and at least one of duration
// or start time, per _confirm_entry / confirm_entry's field checks.
func Confirm(parseResult *types.ParseResult, overrides Overrides) (*ConfirmedEntry, error) {
	if parseResult == nil {
		return nil, types.NewError(types.ErrBadInput, "parse result is required")
	}

	entry := ConfirmedEntry{
		ProjectID:       parseResult.ProjectID,
		TaskID:          parseResult.TaskID,
		DurationSeconds: parseResult.DurationSeconds,
		Description:     parseResult.Description,
	}
	if parseResult.StartTime != nil {
		entry.StartTime = *parseResult.StartTime
	}
	entry.EndTime = parseResult.EndTime

	if overrides.ProjectID != nil {
		entry.ProjectID = *overrides.ProjectID
	}
	if overrides.TaskID != nil {
		entry.TaskID = *overrides.TaskID
	}
	if overrides.DurationSeconds != nil {
		entry.DurationSeconds = *overrides.DurationSeconds
	}
	if overrides.StartTime != nil {
		entry.StartTime = *overrides.StartTime
	}
	if overrides.Description != nil {
		entry.Description = *overrides.Description
	}

	if entry.ProjectID == "" {
		return nil, types.NewError(types.ErrBadInput, "project is required")
	}
	if entry.DurationSeconds == 0 && entry.StartTime.IsZero() {
		return nil, types.NewError(types.ErrBadInput, "duration or start time is required")
	}

	if entry.DurationSeconds > 0 && entry.EndTime == nil && !entry.StartTime.IsZero() {
		end := entry.StartTime.Add(time.Duration(entry.DurationSeconds) * time.Second)
		entry.EndTime = &end
	}

	return &entry, nil
}
