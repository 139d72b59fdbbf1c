package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vision-router/internal/shared/telemetry"
)

// errCorruptLog marks a log file that exists but does not decode.
var errCorruptLog = errors.New("result log is corrupt")

// FileRepo keeps the result log as a single JSON array on disk. Every
// append is a read-modify-write under one mutex and lands via rename.
type FileRepo struct {
	Path string

	mu sync.Mutex
}

// NewFileRepo constructs a FileRepo writing to path.
func NewFileRepo(path string) *FileRepo {
	return &FileRepo{Path: path}
}

// Append adds an entry to the log file, creating it when absent.
func (r *FileRepo) Append(ctx context.Context, entry LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	switch {
	case errors.Is(err, errCorruptLog):
		// Only an undecodable log is replaced; read failures keep the file.
		telemetry.Warn("results.file_corrupt", map[string]any{
			"path":  r.Path,
			"error": err,
		})
		entries = nil
	case err != nil:
		return err
	}
	entries = append(entries, entry)
	return r.store(entries)
}

// GetByID scans the log for the given ID.
func (r *FileRepo) GetByID(ctx context.Context, id string) (LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return LogEntry{}, err
	}
	r.mu.Lock()
	entries, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return LogEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return LogEntry{}, ErrNotFound
}

// AggregateByModel computes the latency leaderboard from the file.
func (r *FileRepo) AggregateByModel(ctx context.Context, task string) ([]ModelLatency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	entries, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return Aggregate(entries, task), nil
}

func (r *FileRepo) load() ([]LogEntry, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read result log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptLog, err)
	}
	return entries, nil
}

func (r *FileRepo) store(entries []LogEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result log: %w", err)
	}
	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace result log: %w", err)
	}
	return nil
}

var _ Repo = (*FileRepo)(nil)
