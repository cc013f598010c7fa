package usage

import (
	"context"
	"testing"

	"phare-hq/phare/pkg/config"
)

func TestScheduler_StartAndStop(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	cfg := config.UsageConfig{
		RetentionDays: 30,
		PruneSchedule: "0 4 * * *",
	}
	s := NewScheduler(backend, cfg, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Error("Expected scheduler to be running")
	}
	if s.NextRun() == nil {
		t.Error("Expected a next run time")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("Expected scheduler to be stopped")
	}
}

func TestScheduler_NotConfigured(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	tests := []struct {
		name string
		cfg  config.UsageConfig
	}{
		{
			name: "zero retention",
			cfg:  config.UsageConfig{RetentionDays: 0, PruneSchedule: "0 4 * * *"},
		},
		{
			name: "empty schedule",
			cfg:  config.UsageConfig{RetentionDays: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(backend, tt.cfg, nil)
			if err := s.Start(context.Background()); err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			if s.IsRunning() {
				t.Error("Expected scheduler to stay idle")
			}
		})
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	cfg := config.UsageConfig{
		RetentionDays: 30,
		PruneSchedule: "not a cron expression",
	}
	s := NewScheduler(backend, cfg, nil)

	if err := s.Start(context.Background()); err == nil {
		t.Error("Expected error for invalid schedule")
	}
}
