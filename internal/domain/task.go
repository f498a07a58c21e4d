package domain

import "time"

// Priority represents the urgency bucket of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// IsValid returns true for the three priorities the upstream store enforces.
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Normalize maps unrecognized values to Medium. The store is expected to
// enforce the enum; this is a defensive fallback, not new validation.
func (p Priority) Normalize() Priority {
	if !p.IsValid() {
		return PriorityMedium
	}
	return p
}

// TaskRecord is a task row as read from the upstream to-do store.
// This job only ever reads it.
type TaskRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskExport is the normalized external schema a task is published in.
// Dates are ISO-8601 strings; description and dueDate are explicit null
// when absent. The field order here is the canonical order the
// fingerprint serializes in; do not reorder.
type TaskExport struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}
