// Package etl implements the transform, fingerprint and load stages of the
// task export pipeline.
package etl

import (
	"strings"
	"time"

	"github.com/tasknest/go-task-export/internal/domain"
)

// PipelineName identifies this pipeline in dataset metadata.
const PipelineName = "task-export-etl"

// Transform normalizes raw store records into a Dataset. It is a pure
// function: now is the extraction instant, injected so statistics and the
// version token are reproducible in tests.
//
// A record with a missing or blank title aborts the transform with a
// MalformedRecordError naming the record; silently skipping would shrink
// the dataset and flip the fingerprint without any store change.
func Transform(records []domain.TaskRecord, now time.Time, source string) (*domain.Dataset, error) {
	now = now.UTC()
	tasks := make([]domain.TaskExport, 0, len(records))
	var stats domain.Statistics

	for _, rec := range records {
		title := strings.TrimSpace(rec.Title)
		if title == "" {
			return nil, &domain.MalformedRecordError{RecordID: rec.ID, Field: "title"}
		}

		priority := rec.Priority.Normalize()
		task := domain.TaskExport{
			ID:          rec.ID,
			Title:       title,
			Description: trimmedOrNil(rec.Description),
			Completed:   rec.Completed,
			Priority:    string(priority),
			DueDate:     isoOrNil(rec.DueDate),
			CreatedAt:   iso(rec.CreatedAt),
			UpdatedAt:   iso(rec.UpdatedAt),
		}
		tasks = append(tasks, task)

		stats.Total++
		if rec.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		switch priority {
		case domain.PriorityHigh:
			stats.ByPriority.High++
		case domain.PriorityLow:
			stats.ByPriority.Low++
		default:
			stats.ByPriority.Medium++
		}
		if !rec.Completed && rec.DueDate != nil && rec.DueDate.Before(now) {
			stats.Overdue++
		}
	}

	return &domain.Dataset{
		Metadata: domain.Metadata{
			ExtractedAt: now,
			Version:     VersionToken(now),
			Count:       len(tasks),
			Statistics:  stats,
			Source:      source,
			Pipeline:    PipelineName,
		},
		Tasks: tasks,
	}, nil
}

// VersionToken derives the lexically sortable backup token for an
// extraction instant, at minute granularity. Collisions within a minute
// are acceptable: the fingerprint, not the version, drives change
// detection.
func VersionToken(t time.Time) string {
	return t.UTC().Format("v2006.01.02.1504")
}

func iso(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func isoOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := iso(*t)
	return &s
}

// trimmedOrNil trims the description; absent and empty-after-trim both
// normalize to null so consumers see one representation for "none".
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
