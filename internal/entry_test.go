package internal

import (
	"context"
	"testing"
)

func TestWithConfigAppliesConfig(t *testing.T) {
	cfg := &Config{}
	s := &settings{}
	WithConfig(cfg)(s)
	if s.config != cfg {
		t.Error("WithConfig did not set the configuration")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error when no config is supplied")
	}
}
