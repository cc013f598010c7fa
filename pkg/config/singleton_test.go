package config

import "testing"

func TestSetConfigAndGetConfig(t *testing.T) {
	orig := GetConfig()
	defer SetConfig(orig)

	cfg := DefaultConfig()
	cfg.Service.Name = "singleton-test"
	SetConfig(cfg)

	got := GetConfig()
	if got == nil {
		t.Fatal("expected non-nil config after SetConfig")
	}
	if got.Service.Name != "singleton-test" {
		t.Errorf("expected service name %q, got %q", "singleton-test", got.Service.Name)
	}
}

func TestMustGetConfig_PanicsWhenUnset(t *testing.T) {
	orig := GetConfig()
	defer SetConfig(orig)

	SetConfig(nil)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic from MustGetConfig with nil config")
		}
	}()
	MustGetConfig()
}
