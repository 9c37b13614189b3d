package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TEST_BOOL", "yes")
	if !ParseBoolEnv("TEST_BOOL", false) {
		t.Error("expected true for 'yes'")
	}
	t.Setenv("TEST_BOOL", "off")
	if ParseBoolEnv("TEST_BOOL", true) {
		t.Error("expected false for 'off'")
	}
	t.Setenv("TEST_BOOL", "maybe")
	if !ParseBoolEnv("TEST_BOOL", true) {
		t.Error("invalid value should fall back to default")
	}
	if ParseBoolEnv("TEST_BOOL_UNSET", false) {
		t.Error("unset value should fall back to default")
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TEST_DUR", "15s")
	if got := ParseDurationEnv("TEST_DUR", time.Minute); got != 15*time.Second {
		t.Errorf("got %v, want 15s", got)
	}
	t.Setenv("TEST_DUR", "nonsense")
	if got := ParseDurationEnv("TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("invalid value should fall back to default, got %v", got)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	if got := GetEnvOrDefault("TEST_STR", "fallback"); got != "value" {
		t.Errorf("got %q", got)
	}
	if got := GetEnvOrDefault("TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}
