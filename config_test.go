package asyncutil

import "testing"

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := defaultConfig()
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validateConfig returned error for defaults: %v", err)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Executor == nil {
		t.Fatalf("Executor default is nil; want executor.Inline{}")
	}
	if cfg.Metrics == nil {
		t.Fatalf("Metrics default is nil; want metrics.NewNoopProvider()")
	}
}
