package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"video2srt/internal/history"
	"video2srt/internal/services"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBeginFinishSucceeded(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := &history.Run{
		InputPath:  "/media/talk.mp4",
		InputHash:  "abc123",
		OutputPath: "/media/talk.srt",
		Backend:    "whisperx",
		Model:      "large-v3",
	}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected run id to be assigned")
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if got.Status != history.StatusRunning {
		t.Fatalf("expected running status, got %q", got.Status)
	}

	if err := store.Finish(ctx, run.ID, history.Outcome{ChunkCount: 2, CaptionCount: 17, DurationMs: 1_200_000}); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	got, err = store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != history.StatusSucceeded || got.ChunkCount != 2 || got.CaptionCount != 17 || got.DurationMs != 1_200_000 {
		t.Fatalf("unexpected finished run: %+v", got)
	}
	if got.FinishedAt.IsZero() || got.Error != "" {
		t.Fatalf("expected finished timestamp and no error: %+v", got)
	}
	if got.Elapsed() < 0 {
		t.Fatalf("unexpected elapsed: %v", got.Elapsed())
	}
}

func TestFinishFailedRecordsError(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	run := &history.Run{InputPath: "a.mp3", OutputPath: "a.srt", Backend: "openai"}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	failure := services.Wrap(services.ErrTranscription, "transcribe", "openai", "chunk_0001", errors.New("status 500"))
	if err := store.Finish(ctx, run.ID, history.Outcome{Err: failure, ErrorKind: services.Kind(failure), ChunkCount: 1}); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	got, _ := store.Get(ctx, run.ID)
	if got.Status != history.StatusFailed {
		t.Fatalf("expected failed status, got %q", got.Status)
	}
	if got.ErrorKind != "transcription" || got.Error != failure.Error() {
		t.Fatalf("unexpected error fields: kind=%q msg=%q", got.ErrorKind, got.Error)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	if err := store.Finish(context.Background(), "missing", history.Outcome{}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		run := &history.Run{
			InputPath:  name + ".wav",
			InputHash:  "same",
			OutputPath: name + ".srt",
			Backend:    "whisperx",
			StartedAt:  base.Add(time.Duration(i) * 100 * time.Millisecond),
		}
		if err := store.Begin(ctx, run); err != nil {
			t.Fatalf("Begin returned error: %v", err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(runs) != 2 || runs[0].InputPath != "third.wav" || runs[1].InputPath != "second.wav" {
		t.Fatalf("unexpected recent order: %+v", runs)
	}

	matches, err := store.FindByHash(ctx, "same")
	if err != nil || len(matches) != 3 {
		t.Fatalf("FindByHash returned %d runs, err %v", len(matches), err)
	}
	counts, err := store.CountByHash(ctx)
	if err != nil || counts["same"] != 3 {
		t.Fatalf("unexpected counts %v, err %v", counts, err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openStore(t)
	run, err := store.Get(context.Background(), "nope")
	if err != nil || run != nil {
		t.Fatalf("expected nil run without error, got %v, %v", run, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	run := &history.Run{InputPath: "x.wav", OutputPath: "x.srt", Backend: "whisperx"}
	if err := store.Begin(context.Background(), run); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	if got, _ := reopened.Get(context.Background(), run.ID); got == nil {
		t.Fatal("expected run to persist across reopen")
	}
}
