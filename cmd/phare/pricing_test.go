package main

import (
	"math"
	"testing"
)

func TestLoadPricingTable_Builtin(t *testing.T) {
	origCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = origCfgFile }()

	table, err := loadPricingTable()
	if err != nil {
		t.Fatalf("loadPricingTable failed: %v", err)
	}
	if table.Len() == 0 {
		t.Error("Expected built-in models in the table")
	}

	cost := table.Cost("gemini-2.5-flash", 1000, 500)
	if math.Abs(cost-0.00155) > 1e-12 {
		t.Errorf("Cost = %v, want 0.00155", cost)
	}
}

func TestLoadPricingTable_BadConfig(t *testing.T) {
	origCfgFile := cfgFile
	cfgFile = "/nonexistent/phare.yaml"
	defer func() { cfgFile = origCfgFile }()

	if _, err := loadPricingTable(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestPricingCommandsRegistered(t *testing.T) {
	if pricingCmd == nil {
		t.Fatal("pricingCmd is nil")
	}
	subs := map[string]bool{}
	for _, c := range pricingCmd.Commands() {
		subs[c.Name()] = true
	}
	for _, want := range []string{"cost", "show"} {
		if !subs[want] {
			t.Errorf("Missing pricing subcommand %q", want)
		}
	}
}
