package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	workDir    string
	historyDB  string
	server     *httptest.Server
	requests   atomic.Int32
}

// setupCLITestEnv isolates HOME, stubs ffmpeg and ffprobe on PATH, and points
// the openai backend at a local server that returns one segment per request.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "VIDEO2SRT_BACKEND", "VIDEO2SRT_LANGUAGE", "VIDEO2SRT_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	binDir := filepath.Join(base, "bin")
	writeScript(t, binDir, "ffprobe", `echo '{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","channels":1}],"format":{"duration":"1.500000"}}'`)
	writeScript(t, binDir, "ffmpeg", `for arg; do last="$arg"; done
: > "$last"`)
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	env := &cliTestEnv{
		baseDir:   base,
		workDir:   filepath.Join(base, "work"),
		historyDB: filepath.Join(base, "history.db"),
	}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			fmt.Fprint(w, `{"data":[{"id":"whisper-1"}]}`)
		case strings.HasSuffix(r.URL.Path, "/audio/transcriptions"):
			env.requests.Add(1)
			fmt.Fprint(w, `{"text":"hello","segments":[{"start":0.25,"end":0.75,"text":" hello "}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(env.server.Close)

	env.configPath = filepath.Join(base, "video2srt.toml")
	content := fmt.Sprintf(`[paths]
work_dir = %q
log_dir = %q
history_db = %q
keep_work_files = false

[chunking]
max_chunk_ms = 1000

[transcriber]
backend = "openai"

[openai]
api_key = "test"
base_url = %q
`, env.workDir, filepath.Join(base, "logs"), env.historyDB, env.server.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF0000WAVE"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}
