package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerWritesContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("ride-service", &buf)

	ctx := l.WithRequestID(context.Background(), "req_1")
	ctx = l.WithRideID(ctx, "ride_1")
	ctx = l.WithUserID(ctx, "user_1")
	l.Warn(ctx, "profile_fallback", " stored in override tier ", errors.New("timeout"), map[string]any{"k": 1})

	var e LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &e); err != nil {
		t.Fatalf("not a JSON line: %v (%s)", err, buf.String())
	}
	if e.Level != "WARN" || e.Service != "ride-service" || e.Action != "profile_fallback" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.RequestID != "req_1" || e.RideID != "ride_1" || e.UserID != "user_1" {
		t.Fatalf("context fields missing: %+v", e)
	}
	if e.Message != "stored in override tier" {
		t.Fatalf("message not trimmed: %q", e.Message)
	}
	if e.Error == nil || e.Error.Msg != "timeout" || e.Error.Stack != "" {
		t.Fatalf("warn error: %+v", e.Error)
	}
}

func TestLoggerErrorCarriesStack(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("bucket-worker", &buf)
	l.Error(context.Background(), "", "boom", nil, nil)

	line := buf.String()
	if !strings.Contains(line, `"action":"unspecified"`) || !strings.Contains(line, `"stack":`) {
		t.Fatalf("unexpected line %s", line)
	}
}

func TestLoggerSurvivesUnmarshalableDetails(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("svc", &buf)
	l.Info(context.Background(), "act", "msg", map[string]any{"ch": make(chan int)})

	if !strings.Contains(buf.String(), `"action":"act"`) {
		t.Fatalf("expected entry without details, got %s", buf.String())
	}
}
