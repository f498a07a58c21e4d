package domain

import "fmt"

// StoreUnavailableError is returned when the task store cannot be reached
// or queried. Fatal: the run aborts before any write.
type StoreUnavailableError struct {
	Op    string
	Cause error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("task store unavailable during %s: %v", e.Op, e.Cause)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Cause }

// MalformedRecordError is returned when a record violates the expected
// shape during transform. The run fails fast; see DESIGN.md.
type MalformedRecordError struct {
	RecordID string
	Field    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s: missing required field %q", e.RecordID, e.Field)
}

// LoadFailedError is returned when writing an output artifact fails.
// Fatal: a half-written output directory must fail the run.
type LoadFailedError struct {
	Path  string
	Cause error
}

func (e *LoadFailedError) Error() string {
	return fmt.Sprintf("load failed writing %s: %v", e.Path, e.Cause)
}

func (e *LoadFailedError) Unwrap() error { return e.Cause }

// RetentionCleanupError is returned when pruning old backups fails.
// Non-fatal: a failed prune must not mask a successful save, so callers
// log it and continue.
type RetentionCleanupError struct {
	Path  string
	Cause error
}

func (e *RetentionCleanupError) Error() string {
	return fmt.Sprintf("retention cleanup failed for %s: %v", e.Path, e.Cause)
}

func (e *RetentionCleanupError) Unwrap() error { return e.Cause }
