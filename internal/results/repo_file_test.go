package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRepoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs.json")
	repo := NewFileRepo(path)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	first := LogEntry{ID: "1", Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Task: "OCR", Model: "pytesseract", LatencySeconds: 1.2, Result: "hello"}
	second := LogEntry{ID: "2", Timestamp: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC), Task: "Visual QA", Model: "BLIP-2", LatencySeconds: 0.8, Result: "red"}
	for _, e := range []LogEntry{first, second} {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Timestamp.Equal(second.Timestamp) || got.Result != "red" || got.Model != "BLIP-2" {
		t.Fatalf("unexpected entry %+v", got)
	}

	rows, err := repo.AggregateByModel(ctx, "OCR")
	if err != nil {
		t.Fatalf("AggregateByModel: %v", err)
	}
	if len(rows) != 1 || rows[0].Model != "pytesseract" || rows[0].AverageLatency != 1.2 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestFileRepoReplacesCorruptLogOnAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo := NewFileRepo(path)
	ctx := context.Background()

	if _, err := repo.AggregateByModel(ctx, ""); err == nil {
		t.Fatalf("expected decode error on corrupt file")
	}
	if err := repo.Append(ctx, LogEntry{ID: "fresh", Model: "None"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := repo.GetByID(ctx, "fresh"); err != nil {
		t.Fatalf("GetByID after recovery: %v", err)
	}
}

func TestFileRepoEmptyFileIsEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := NewFileRepo(path).AggregateByModel(context.Background(), "")
	if err != nil {
		t.Fatalf("AggregateByModel: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestFileRepoKeepsLogOnReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	repo := NewFileRepo(path)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := repo.Append(ctx, LogEntry{ID: id, Model: "BLIP-2"}); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Swap the log for a self-referencing symlink so reads fail without the
	// content being corrupt.
	aside := path + ".aside"
	if err := os.Rename(path, aside); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := os.Symlink(path, path); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := repo.Append(ctx, LogEntry{ID: "c", Model: "BLIP-2"}); err == nil {
		t.Fatalf("expected read error to fail the append")
	}
	info, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("lstat: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("append replaced the unreadable log")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	if err := os.Rename(aside, path); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := repo.GetByID(ctx, "a"); err != nil {
		t.Fatalf("expected earlier entry to survive, got %v", err)
	}
	restored, _ := os.ReadFile(path)
	if string(restored) != string(saved) {
		t.Fatalf("log content changed after failed append")
	}
}
