package mld6

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.MaxGroups != 16 {
		t.Errorf("MaxGroups = %d, want 16", c.MaxGroups)
	}
	if c.RobustnessVariable != 2 {
		t.Errorf("RobustnessVariable = %d, want 2", c.RobustnessVariable)
	}
	if c.UnsolicitedReportInterval != time.Second {
		t.Errorf("UnsolicitedReportInterval = %v, want 1s", c.UnsolicitedReportInterval)
	}
}

func TestOlderVersionQuerierPresentTimeout(t *testing.T) {
	c := DefaultConfig()
	want := 2*125*time.Second + 10*time.Second
	if got := c.OlderVersionQuerierPresentTimeout(); got != want {
		t.Errorf("OlderVersionQuerierPresentTimeout() = %v, want %v", got, want)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	c := DefaultConfig()
	for _, opt := range []Option{
		WithMaxGroups(4),
		WithMaxSources(8),
		WithRobustnessVariable(3),
		WithMaxReportPacketSize(512),
	} {
		opt(&c)
	}

	if c.MaxGroups != 4 || c.MaxSources != 8 || c.RobustnessVariable != 3 || c.MaxReportPacketSize != 512 {
		t.Errorf("Config after options = %+v, want overrides applied", c)
	}
}
