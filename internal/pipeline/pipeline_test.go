package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"video2srt/internal/captions"
	"video2srt/internal/chunk"
	"video2srt/internal/history"
	"video2srt/internal/media/audio"
	"video2srt/internal/services"
	"video2srt/internal/testsupport"
)

type fakeSource struct {
	durationMs int64
	extractErr error
	cuts       []chunk.Chunk
}

func (f *fakeSource) Extract(_ context.Context, inputPath, workDir string) (audio.Stream, error) {
	if f.extractErr != nil {
		return audio.Stream{}, f.extractErr
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return audio.Stream{}, err
	}
	return audio.Stream{Path: inputPath, DurationMs: f.durationMs}, nil
}

func (f *fakeSource) Cut(_ context.Context, _ audio.Stream, c chunk.Chunk, workDir string) (string, error) {
	f.cuts = append(f.cuts, c)
	dir := filepath.Join(workDir, audio.ChunkDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, c.Name()+".wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeTranscriber struct {
	results [][]captions.RawSegment
	failAt  int
	calls   []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) ([]captions.RawSegment, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, audioPath)
	if f.failAt > 0 && idx+1 == f.failAt {
		return nil, errors.New("model crashed")
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return nil, nil
}

func (f *fakeTranscriber) Name() string  { return "fake" }
func (f *fakeTranscriber) Model() string { return "tiny" }

func seg(start, end, text string) captions.RawSegment {
	return captions.RawSegment{
		Start: decimal.RequireFromString(start),
		End:   decimal.RequireFromString(end),
		Text:  text,
	}
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestRunOffsetsSecondChunk(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkMs(1000))
	source := &fakeSource{durationMs: 1500}
	transcriber := &fakeTranscriber{results: [][]captions.RawSegment{
		{seg("0.5", "0.9", "hello")},
		{seg("0.1", "0.4", "world")},
	}}
	p, err := New(cfg, WithSource(source), WithTranscriber(transcriber))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	input := writeInput(t, "talk.mp4")
	output := filepath.Join(t.TempDir(), "talk.srt")
	result, err := p.Run(context.Background(), Request{InputPath: input, OutputPath: output})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ChunkCount != 2 || len(source.cuts) != 2 || len(transcriber.calls) != 2 {
		t.Fatalf("unexpected chunk accounting: result=%d cuts=%d calls=%d", result.ChunkCount, len(source.cuts), len(transcriber.calls))
	}
	if source.cuts[1].StartMs != 1000 || source.cuts[1].DurationMs != 500 {
		t.Fatalf("unexpected second chunk: %+v", source.cuts[1])
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "1\n00:00:00,500 --> 00:00:00,900\nhello\n\n2\n00:00:01,100 --> 00:00:01,400\nworld\n"
	if string(data) != want {
		t.Fatalf("unexpected srt:\n%q\nwant\n%q", string(data), want)
	}
	if result.RunID == "" || result.OutputPath != output {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.WorkDir, result.RunID)); !os.IsNotExist(err) {
		t.Fatalf("expected run dir removed, stat err=%v", err)
	}
}

func TestRunKeepsWorkFilesWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithKeepWorkFiles())
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 2000}), WithTranscriber(&fakeTranscriber{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := p.Run(context.Background(), Request{
		InputPath:  writeInput(t, "clip.wav"),
		OutputPath: filepath.Join(t.TempDir(), "clip.srt"),
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	chunkFile := filepath.Join(cfg.Paths.WorkDir, result.RunID, audio.ChunkDirName, "chunk_0000.wav")
	if _, err := os.Stat(chunkFile); err != nil {
		t.Fatalf("expected chunk file kept: %v", err)
	}
	if len(result.Captions) != 0 {
		t.Fatalf("expected no captions, got %d", len(result.Captions))
	}
}

func TestRunLineLengthOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	transcriber := &fakeTranscriber{results: [][]captions.RawSegment{
		{seg("0", "1", "abcdefghij")},
	}}
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 1000}), WithTranscriber(transcriber))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := p.Run(context.Background(), Request{
		InputPath:     writeInput(t, "clip.mp3"),
		OutputPath:    filepath.Join(t.TempDir(), "clip.srt"),
		MaxLineLength: 4,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := result.Captions[0].Text; got != "abcd\nefgh\nij" {
		t.Fatalf("unexpected wrapped text %q", got)
	}
}

func TestRunTranscriptionFailureWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkMs(1000))
	store := testsupport.MustOpenHistory(t, cfg)
	transcriber := &fakeTranscriber{
		results: [][]captions.RawSegment{{seg("0", "0.5", "first")}},
		failAt:  2,
	}
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 3000}), WithTranscriber(transcriber), WithHistory(store))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	output := filepath.Join(t.TempDir(), "talk.srt")
	result, err := p.Run(context.Background(), Request{InputPath: writeInput(t, "talk.mkv"), OutputPath: output})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if len(transcriber.calls) != 2 {
		t.Fatalf("expected loop to stop after failing chunk, calls=%d", len(transcriber.calls))
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}

	run, err := store.Get(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("Get returned %v, %v", run, err)
	}
	if run.Status != history.StatusFailed || run.ErrorKind != "transcription" {
		t.Fatalf("unexpected history row: %+v", run)
	}
	if !strings.Contains(run.Error, "model crashed") {
		t.Fatalf("expected underlying cause in history, got %q", run.Error)
	}
}

func TestRunRecordsSuccessInHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	transcriber := &fakeTranscriber{results: [][]captions.RawSegment{
		{seg("0", "1", "one"), seg("1", "2", "two")},
	}}
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 2500}), WithTranscriber(transcriber), WithHistory(store))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	input := writeInput(t, "lecture.m4a")
	result, err := p.Run(context.Background(), Request{InputPath: input, OutputPath: filepath.Join(t.TempDir(), "lecture.srt")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	run, err := store.Get(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("Get returned %v, %v", run, err)
	}
	if run.Status != history.StatusSucceeded || run.CaptionCount != 2 || run.ChunkCount != 1 || run.DurationMs != 2500 {
		t.Fatalf("unexpected history row: %+v", run)
	}
	if run.InputHash == "" || run.Backend != "fake" || run.Model != "tiny" {
		t.Fatalf("expected fingerprint and backend recorded: %+v", run)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 1000}), WithTranscriber(&fakeTranscriber{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = p.Run(context.Background(), Request{
		InputPath:  filepath.Join(t.TempDir(), "missing.mp4"),
		OutputPath: filepath.Join(t.TempDir(), "missing.srt"),
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = p.Run(context.Background(), Request{InputPath: writeInput(t, "a.mp4")})
	if !errors.Is(err, services.ErrUsage) {
		t.Fatalf("expected usage error for empty output, got %v", err)
	}
}

func TestRunPropagatesExtractError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractErr := services.Wrap(services.ErrUnsupportedFormat, "extract", "probe", "no audio stream", nil)
	p, err := New(cfg, WithSource(&fakeSource{extractErr: extractErr}), WithTranscriber(&fakeTranscriber{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = p.Run(context.Background(), Request{InputPath: writeInput(t, "silent.mp4"), OutputPath: filepath.Join(t.TempDir(), "x.srt")})
	if !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestRunInvalidSegmentAborts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	transcriber := &fakeTranscriber{results: [][]captions.RawSegment{
		{seg("-1", "0.5", "bad")},
	}}
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 1000}), WithTranscriber(transcriber))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = p.Run(context.Background(), Request{InputPath: writeInput(t, "a.wav"), OutputPath: filepath.Join(t.TempDir(), "a.srt")})
	if !errors.Is(err, services.ErrInvalidSegment) {
		t.Fatalf("expected invalid segment, got %v", err)
	}
}

func TestRunBusyWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	held, err := acquireWorkLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("acquireWorkLock returned error: %v", err)
	}
	defer held.release()

	p, err := New(cfg, WithSource(&fakeSource{durationMs: 1000}), WithTranscriber(&fakeTranscriber{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = p.Run(context.Background(), Request{InputPath: writeInput(t, "a.wav"), OutputPath: filepath.Join(t.TempDir(), "a.srt")})
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
}

func TestRunReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkMs(1000))
	var events []string
	p, err := New(cfg,
		WithSource(&fakeSource{durationMs: 2500}),
		WithTranscriber(&fakeTranscriber{}),
		WithProgress(func(pr Progress) {
			events = append(events, fmt.Sprintf("%s %d/%d", pr.Stage, pr.Chunk, pr.Total))
		}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := p.Run(context.Background(), Request{InputPath: writeInput(t, "a.wav"), OutputPath: filepath.Join(t.TempDir(), "a.srt")}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []string{"extract 0/0", "transcribe 1/3", "transcribe 2/3", "transcribe 3/3", "write 3/3"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected progress events %v", events)
	}
}

func TestRunWritesTranscriptDocx(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	transcriber := &fakeTranscriber{results: [][]captions.RawSegment{{seg("0", "1", "hello")}}}
	p, err := New(cfg, WithSource(&fakeSource{durationMs: 1000}), WithTranscriber(transcriber))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	docx := filepath.Join(t.TempDir(), "talk.docx")
	result, err := p.Run(context.Background(), Request{
		InputPath:  writeInput(t, "talk.mp4"),
		OutputPath: filepath.Join(t.TempDir(), "talk.srt"),
		DocxPath:   docx,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if info, err := os.Stat(docx); err != nil || info.Size() == 0 || result.DocxPath != docx {
		t.Fatalf("expected docx written: info=%v err=%v", info, err)
	}
}

func TestNewTranscriberSelectsBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr, err := NewTranscriber(cfg, nil)
	if err != nil || tr.Name() != "whisperx" {
		t.Fatalf("expected whisperx backend, got %v, %v", tr, err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithBackend("openai"))
	tr, err = NewTranscriber(cfg, nil)
	if err != nil || tr.Name() != "openai" {
		t.Fatalf("expected openai backend, got %v, %v", tr, err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithBackend("nope"))
	if _, err := NewTranscriber(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunSkipsSegmentsWithoutText(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChunkMs(1000))
	cfg.Captions.StripChars = []string{"。"}
	source := &fakeSource{durationMs: 1500}
	transcriber := &fakeTranscriber{results: [][]captions.RawSegment{
		{seg("0.1", "0.3", "hello"), seg("0.3", "0.6", " 。 ")},
		{seg("0.0", "0.2", "   "), seg("0.2", "0.4", "world")},
	}}
	p, err := New(cfg, WithSource(source), WithTranscriber(transcriber))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	output := filepath.Join(t.TempDir(), "quiet.srt")
	result, err := p.Run(context.Background(), Request{InputPath: writeInput(t, "quiet.mp4"), OutputPath: output})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Skipped != 2 || len(result.Captions) != 2 {
		t.Fatalf("expected 2 captions and 2 skipped, got %d and %d", len(result.Captions), result.Skipped)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "1\n00:00:00,100 --> 00:00:00,300\nhello\n\n2\n00:00:01,200 --> 00:00:01,400\nworld\n"
	if string(data) != want {
		t.Fatalf("unexpected srt:\n%q\nwant\n%q", string(data), want)
	}
}

func TestVerifyWrittenSRTDetectsCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	content := "1\n00:00:00,000 --> 00:00:01,000\nhello\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	if err := verifyWrittenSRT(path, 1); err != nil {
		t.Fatalf("expected matching count to pass, got %v", err)
	}
	err := verifyWrittenSRT(path, 2)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := verifyWrittenSRT(filepath.Join(t.TempDir(), "missing.srt"), 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing file, got %v", err)
	}
}
