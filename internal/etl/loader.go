package etl

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/tasknest/go-task-export/internal/domain"
	"github.com/tasknest/go-task-export/pkg/telemetry"
)

const (
	latestFile   = "latest.json"
	hashFile     = "latest.hash"
	lockFile     = ".export.lock"
	backupPrefix = "dataset-"
	backupSuffix = ".json"
)

// DefaultMaxBackups bounds how many versioned backups are kept on disk.
const DefaultMaxBackups = 5

// Loader persists a Dataset to the output directory when, and only when,
// its fingerprint differs from the last persisted one. The output
// directory is the single durable resource shared between runs, so the
// whole read-compare-write window is serialized with an advisory file
// lock: a second concurrent run blocks, then observes the first run's
// hash and no-ops.
type Loader struct {
	dir        string
	maxBackups int
	logger     *slog.Logger
}

// NewLoader creates a Loader writing to dir. maxBackups <= 0 falls back
// to DefaultMaxBackups.
func NewLoader(dir string, maxBackups int, logger *slog.Logger) *Loader {
	if maxBackups <= 0 {
		maxBackups = DefaultMaxBackups
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, maxBackups: maxBackups, logger: logger}
}

// Load compares the dataset fingerprint against the stored hash marker and
// writes the snapshot, a versioned backup and the new marker on change.
// The no-op path touches no file, including the latest snapshot.
//
// Write failures are fatal (LoadFailedError); a failed retention prune is
// logged and does not fail the run.
func (l *Loader) Load(dataset *domain.Dataset) (domain.LoadResult, error) {
	lock := flock.New(filepath.Join(l.dir, lockFile))
	if err := lock.Lock(); err != nil {
		return domain.LoadResult{}, &domain.LoadFailedError{Path: lock.Path(), Cause: err}
	}
	defer func() { _ = lock.Unlock() }()

	currentHash := Fingerprint(dataset.Tasks)

	previousHash, err := l.readHashMarker()
	if err != nil {
		return domain.LoadResult{}, err
	}

	if previousHash == currentHash {
		return domain.LoadResult{Saved: false, Reason: "no changes detected"}, nil
	}

	dataset.Metadata.DataHash = currentHash
	dataset.Metadata.Changed = true

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return domain.LoadResult{}, &domain.LoadFailedError{Path: latestFile, Cause: err}
	}
	data = append(data, '\n')

	if err := l.writeAtomic(latestFile, data); err != nil {
		return domain.LoadResult{}, err
	}
	backupName := backupPrefix + dataset.Metadata.Version + backupSuffix
	if err := l.writeAtomic(backupName, data); err != nil {
		return domain.LoadResult{}, err
	}
	if err := l.writeAtomic(hashFile, []byte(currentHash+"\n")); err != nil {
		return domain.LoadResult{}, err
	}

	if err := l.prune(); err != nil {
		l.logger.Warn("retention cleanup failed, continuing",
			slog.String("error", err.Error()))
	}

	stats := dataset.Metadata.Statistics
	return domain.LoadResult{
		Saved:   true,
		Version: dataset.Metadata.Version,
		Hash:    currentHash,
		Count:   dataset.Metadata.Count,
		Stats:   &stats,
	}, nil
}

// readHashMarker returns the previously persisted fingerprint, or the
// empty string when no marker exists yet (first-ever run).
func (l *Loader) readHashMarker() (string, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir, hashFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", &domain.LoadFailedError{Path: hashFile, Cause: err}
	}
	return strings.TrimSpace(string(raw)), nil
}

// writeAtomic writes via a temp file in the same directory plus rename, so
// readers never observe a half-written snapshot.
func (l *Loader) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(l.dir, name+".tmp-*")
	if err != nil {
		return &domain.LoadFailedError{Path: name, Cause: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.LoadFailedError{Path: name, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.LoadFailedError{Path: name, Cause: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &domain.LoadFailedError{Path: name, Cause: err}
	}
	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		os.Remove(tmpName)
		return &domain.LoadFailedError{Path: name, Cause: err}
	}
	return nil
}

// prune deletes versioned backups beyond maxBackups, keeping the newest.
// Version tokens are lexically sortable, so a descending name sort is a
// descending age sort.
func (l *Loader) prune() error {
	matches, err := filepath.Glob(filepath.Join(l.dir, backupPrefix+"*"+backupSuffix))
	if err != nil {
		return &domain.RetentionCleanupError{Path: l.dir, Cause: err}
	}
	if len(matches) <= l.maxBackups {
		return nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	var errs []error
	for _, path := range matches[l.maxBackups:] {
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", filepath.Base(path), err))
		} else {
			telemetry.ExportBackupsPruned.Inc()
			l.logger.Debug("pruned backup", slog.String("file", filepath.Base(path)))
		}
	}
	if len(errs) > 0 {
		return &domain.RetentionCleanupError{Path: l.dir, Cause: errors.Join(errs...)}
	}
	return nil
}
