package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdLoggerFormatsKeyvals(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(&buf)
	if err := logger.Log(LevelInfo, "offset", 42, "format", "bsa"); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "[INFO]") {
		t.Errorf("missing level prefix: %q", got)
	}
	if !strings.Contains(got, "offset=42") || !strings.Contains(got, "format=bsa") {
		t.Errorf("missing keyvals: %q", got)
	}
}

func TestFilterDropsBelowMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilter(NewStdLogger(&buf), FilterLevel(LevelWarn))

	logger.Log(LevelDebug, "msg", "should be dropped")
	logger.Log(LevelInfo, "msg", "should be dropped too")
	logger.Log(LevelWarn, "msg", "kept")
	logger.Log(LevelError, "msg", "kept too")

	got := buf.String()
	if strings.Contains(got, "dropped") {
		t.Errorf("filter let a below-threshold entry through: %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("expected exactly 2 logged lines, got %q", got)
	}
}

func TestHelperNilLoggerIsSilent(t *testing.T) {
	var h *Helper
	h.Infof("this must not panic: %d", 1)

	h2 := NewHelper(nil)
	h2.Errorf("also silent: %s", "ok")
}

func TestHelperFormatsMessage(t *testing.T) {
	var buf bytes.Buffer
	h := NewHelper(NewStdLogger(&buf))
	h.Warnf("chunk %d failed: %v", 3, "bad magic")

	got := buf.String()
	if !strings.Contains(got, "[WARN]") {
		t.Errorf("missing WARN prefix: %q", got)
	}
	if !strings.Contains(got, "chunk 3 failed: bad magic") {
		t.Errorf("message not formatted: %q", got)
	}
}
