package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and restores the
// previous settings on cleanup.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	origOutput, origColor := output, useColor
	output, useColor = buf, false
	mu.Unlock()
	origLevel := CurrentLevel()
	origFormat, _ := currentFormat.Load().(string)
	reconfigure()

	t.Cleanup(func() {
		mu.Lock()
		output, useColor = origOutput, origColor
		mu.Unlock()
		currentLevel.Store(int32(origLevel))
		currentFormat.Store(origFormat)
		reconfigure()
	})
	return buf
}

func decodeJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	return entry
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
		skip  []string
	}{
		{"DEBUG", []string{"debug msg", "info msg", "warn msg", "error msg"}, nil},
		{"INFO", []string{"info msg", "warn msg", "error msg"}, []string{"debug msg"}},
		{"WARN", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"ERROR", []string{"error msg"}, []string{"debug msg", "info msg", "warn msg"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := captureOutput(t)
			SetFormat("text")
			SetLevel(tt.level)

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")

			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, s := range tt.skip {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	captureOutput(t)
	SetLevel("WARN")
	SetLevel("LOUD")
	assert.Equal(t, LevelWarn, CurrentLevel())
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, l)

	_, ok = ParseLevel("trace")
	assert.False(t, ok)
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestTextFormat(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")
	SetLevel("INFO")

	Info("acl applied", Path("/mnt/tank/share dir"), Entries(4), Mode(0o755))

	out := buf.String()
	assert.Contains(t, out, "INFO  acl applied")
	assert.Contains(t, out, `path="/mnt/tank/share dir"`)
	assert.Contains(t, out, "entries=4")
	assert.Contains(t, out, "mode=0755")
}

func TestTextFormat_Groups(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")
	SetLevel("INFO")

	With(Component("jobs")).WithGroup("job").Info("started", "id", "abc")

	out := buf.String()
	assert.Contains(t, out, "component=jobs")
	assert.Contains(t, out, "job.id=abc")
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("json")
	SetLevel("INFO")

	Warn("helper failed", Action("clone"), Stderr("bad path"), Err(errors.New("exit status 1")))

	entry := decodeJSONLine(t, buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "helper failed", entry["msg"])
	assert.Equal(t, "clone", entry["action"])
	assert.Equal(t, "bad path", entry["stderr"])
	assert.Equal(t, "exit status 1", entry["error"])
}

func TestContextLogging(t *testing.T) {
	t.Run("InjectsFields", func(t *testing.T) {
		buf := captureOutput(t)
		SetFormat("json")
		SetLevel("INFO")

		lc := &LogContext{
			TraceID:   "abc123",
			RequestID: "req-1",
			JobID:     "job-1",
			Method:    "filesystem.setacl",
			ClientIP:  "192.168.1.100",
			Subject:   "admin",
		}
		InfoCtx(WithContext(context.Background(), lc), "done", "extra", "value")

		entry := decodeJSONLine(t, buf)
		assert.Equal(t, "abc123", entry["trace_id"])
		assert.Equal(t, "req-1", entry["request_id"])
		assert.Equal(t, "job-1", entry["job_id"])
		assert.Equal(t, "filesystem.setacl", entry["method"])
		assert.Equal(t, "192.168.1.100", entry["client_ip"])
		assert.Equal(t, "admin", entry["subject"])
		assert.Equal(t, "value", entry["extra"])
	})

	t.Run("NilContext", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("INFO")
		require.NotPanics(t, func() {
			//nolint:staticcheck // nil context is tolerated
			InfoCtx(nil, "test message")
		})
		assert.Contains(t, buf.String(), "test message")
	})
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext("10.0.0.1")
	assert.False(t, lc.StartTime.IsZero())

	withJob := lc.WithJob("j1").WithMethod("filesystem.chown")
	assert.Equal(t, "j1", withJob.JobID)
	assert.Equal(t, "filesystem.chown", withJob.Method)
	assert.Empty(t, lc.JobID)

	var nilLC *LogContext
	assert.Nil(t, nilLC.Clone())
	assert.Zero(t, nilLC.DurationMs())

	ctx, created := EnsureContext(context.Background())
	require.NotNil(t, created)
	again, same := EnsureContext(ctx)
	assert.Same(t, created, same)
	assert.Equal(t, ctx, again)
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, KeyUID, UID(-1).Key)
	assert.Equal(t, int64(-1), UID(-1).Value.Int64())
	assert.Equal(t, "0700", Mode(0o700).Value.String())
}

func TestConcurrentLogging(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")
	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Info("concurrent", "n", n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "concurrent"))
}

func TestInit(t *testing.T) {
	captureOutput(t)

	assert.Error(t, Init(Config{Level: "LOUD"}))
	assert.Error(t, Init(Config{Format: "xml"}))
	assert.Error(t, Init(Config{Output: "/nonexistent-dir/x/y.log"}))

	path := t.TempDir() + "/acl.log"
	require.NoError(t, Init(Config{Level: "DEBUG", Format: "json", Output: path}))
	assert.Equal(t, LevelDebug, CurrentLevel())
}
