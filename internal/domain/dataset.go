package domain

import "time"

// PriorityCounts buckets tasks by priority after defaulting, so the three
// counts always sum to the total.
type PriorityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Statistics are aggregate counts over one transformed task set.
// Overdue counts tasks whose due date is past and that are not completed,
// judged at extraction time.
type Statistics struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Pending    int            `json:"pending"`
	ByPriority PriorityCounts `json:"byPriority"`
	Overdue    int            `json:"overdue"`
}

// Metadata describes one export run. DataHash and Changed are filled in by
// the loader just before the snapshot is written.
type Metadata struct {
	ExtractedAt time.Time  `json:"extractedAt"`
	Version     string     `json:"version"`
	Count       int        `json:"count"`
	DataHash    string     `json:"dataHash,omitempty"`
	Changed     bool       `json:"changed,omitempty"`
	Statistics  Statistics `json:"statistics"`
	Source      string     `json:"source"`
	Pipeline    string     `json:"pipeline"`
}

// Dataset is the primary output artifact: run metadata plus the ordered,
// normalized task set. Constructed fresh on every run and not mutated
// afterwards, except for the loader stamping DataHash/Changed.
type Dataset struct {
	Metadata Metadata     `json:"metadata"`
	Tasks    []TaskExport `json:"tasks"`
}

// LoadResult reports the outcome of the load stage.
type LoadResult struct {
	Saved   bool        `json:"saved"`
	Reason  string      `json:"reason,omitempty"`
	Version string      `json:"version,omitempty"`
	Hash    string      `json:"hash,omitempty"`
	Count   int         `json:"count,omitempty"`
	Stats   *Statistics `json:"stats,omitempty"`
}
