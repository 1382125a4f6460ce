package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLoggerRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf})

	logger.Info(context.Background(), "provider configured",
		"detail", "api_key=sk-ant-REDACTED")

	out := buf.String()
	if strings.Contains(out, "sk-ant-abcdefghijklmnop") {
		t.Errorf("api key leaked into log: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("redaction placeholder missing: %s", out)
	}
}

func TestLoggerContextCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "json", Output: &buf})

	ctx := AddRequestID(context.Background(), "req-9")
	ctx = AddSessionID(ctx, "sess-3")
	ctx = AddRecordID(ctx, "rec-7")
	logger.Info(ctx, "chat started")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log line not JSON: %v", err)
	}
	if record["request_id"] != "req-9" || record["session_id"] != "sess-3" || record["record_id"] != "rec-7" {
		t.Errorf("correlation fields missing: %v", record)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "text", Output: &buf})

	logger.Debug(context.Background(), "noise")
	logger.Info(context.Background(), "noise")
	logger.Warn(context.Background(), "kept")

	out := buf.String()
	if strings.Contains(out, "noise") {
		t.Errorf("below-level records emitted: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record dropped: %s", out)
	}
}

func TestLoggerRedactsSensitiveMapKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "json", Output: &buf})

	logger.Info(context.Background(), "config loaded", "settings", map[string]any{
		"api_key": "supersecretvalue",
		"model":   "claude",
	})

	out := buf.String()
	if strings.Contains(out, "supersecretvalue") {
		t.Errorf("sensitive map value leaked: %s", out)
	}
	if !strings.Contains(out, "claude") {
		t.Errorf("benign value dropped: %s", out)
	}
}

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ChatRequests.WithLabelValues("completed").Inc()
	m.SecurityBlocks.WithLabelValues("prompt_injection").Inc()
	m.ToolDuration.WithLabelValues("get_land_registry").Observe(0.2)
	m.IterationLimitReached.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"shamay_chat_requests_total",
		"shamay_security_blocks_total",
		"shamay_tool_duration_seconds",
		"shamay_iteration_limit_reached_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
