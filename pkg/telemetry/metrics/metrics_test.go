package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"phare-hq/phare/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	enabled := true
	return &config.MetricsConfig{
		Enabled:         &enabled,
		Path:            "/metrics",
		Namespace:       "test",
		Subsystem:       "agent",
		DurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if !collector.Enabled() {
		t.Error("Expected collector to be enabled")
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{}
	collector := NewCollector(cfg, nil)

	if cfg.Namespace != "phare" {
		t.Errorf("Expected default namespace 'phare', got %q", cfg.Namespace)
	}
	if cfg.Subsystem != "agent" {
		t.Errorf("Expected default subsystem 'agent', got %q", cfg.Subsystem)
	}
	if len(cfg.DurationBuckets) == 0 {
		t.Error("Expected default duration buckets")
	}
	// Nil Enabled means enabled.
	if !collector.Enabled() {
		t.Error("Expected collector enabled by default")
	}
}

func TestCollector_RecordAgentRun(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordAgentRun("benefits-agent", "success", 1200*time.Millisecond)
	collector.RecordAgentRun("benefits-agent", "success", 800*time.Millisecond)
	collector.RecordAgentRun("benefits-agent", "error", 100*time.Millisecond)

	got := testutil.ToFloat64(
		collector.agentMetrics.runsTotal.WithLabelValues("benefits-agent", "success"),
	)
	if got != 2 {
		t.Errorf("Expected 2 successful runs, got %v", got)
	}
	got = testutil.ToFloat64(
		collector.agentMetrics.runsTotal.WithLabelValues("benefits-agent", "error"),
	)
	if got != 1 {
		t.Errorf("Expected 1 failed run, got %v", got)
	}
}

func TestCollector_RecordModelCall(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordModelCall("gemini-2.5-flash", "benefits-agent", "success", 850*time.Millisecond)
	collector.RecordTokens("gemini-2.5-flash", "benefits-agent", 1000, 500)
	collector.RecordCost("gemini-2.5-flash", "benefits-agent", 0.00155)

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{
			name:   "calls counted",
			metric: collector.llmMetrics.callsTotal.WithLabelValues("gemini-2.5-flash", "benefits-agent", "success"),
			want:   1,
		},
		{
			name:   "prompt tokens counted",
			metric: collector.llmMetrics.tokensTotal.WithLabelValues("gemini-2.5-flash", "benefits-agent", "prompt"),
			want:   1000,
		},
		{
			name:   "completion tokens counted",
			metric: collector.llmMetrics.tokensTotal.WithLabelValues("gemini-2.5-flash", "benefits-agent", "completion"),
			want:   500,
		},
		{
			name:   "cost accumulated",
			metric: collector.llmMetrics.costTotal.WithLabelValues("gemini-2.5-flash", "benefits-agent"),
			want:   0.00155,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.metric); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollector_RecordCost_SkipsZero(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCost("free-model", "benefits-agent", 0)

	got := testutil.ToFloat64(collector.llmMetrics.costTotal.WithLabelValues("free-model", "benefits-agent"))
	if got != 0 {
		t.Errorf("Expected no cost recorded, got %v", got)
	}
}

func TestCollector_RecordToolCall(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordToolCall("lookup_case", "benefits-agent", "success", 40*time.Millisecond)
	collector.RecordToolCall("lookup_case", "benefits-agent", "error", 5*time.Millisecond)

	got := testutil.ToFloat64(
		collector.toolMetrics.callsTotal.WithLabelValues("lookup_case", "benefits-agent", "success"),
	)
	if got != 1 {
		t.Errorf("Expected 1 successful tool call, got %v", got)
	}
}

func TestCollector_Sessions(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.SessionStarted()
	collector.SessionStarted()
	collector.SessionEnded("UserEnded")

	active := testutil.ToFloat64(collector.sessionMetrics.sessionsActive)
	if active != 1 {
		t.Errorf("Expected 1 active session, got %v", active)
	}
	ended := testutil.ToFloat64(
		collector.sessionMetrics.sessionsEnded.WithLabelValues("UserEnded"),
	)
	if ended != 1 {
		t.Errorf("Expected 1 ended session, got %v", ended)
	}
}

func TestCollector_RecordExport(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordExport("success", 12)
	collector.RecordExport("auth_failure", 3)
	collector.RecordExport("cooldown", 0)

	batches := testutil.ToFloat64(
		collector.sessionMetrics.exportBatches.WithLabelValues("cooldown"),
	)
	if batches != 1 {
		t.Errorf("Expected 1 cooldown batch, got %v", batches)
	}
	spans := testutil.ToFloat64(
		collector.sessionMetrics.exportSpans.WithLabelValues("success"),
	)
	if spans != 12 {
		t.Errorf("Expected 12 exported spans, got %v", spans)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	disabled := false
	cfg.Enabled = &disabled
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordAgentRun("benefits-agent", "success", time.Second)
	collector.RecordModelCall("gemini-2.5-flash", "benefits-agent", "success", time.Second)
	collector.SessionStarted()

	got := testutil.ToFloat64(
		collector.agentMetrics.runsTotal.WithLabelValues("benefits-agent", "success"),
	)
	if got != 0 {
		t.Errorf("Expected no metrics when disabled, got %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordAgentRun("benefits-agent", "success", time.Second)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "test_agent_runs_total") {
		t.Error("Expected agent run metric in scrape output")
	}
}
