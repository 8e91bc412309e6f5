package utils

import "testing"

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("BCHAIN_TEST_KEY", "value")
	if got := EnvOrDefault("BCHAIN_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("got %q want value", got)
	}
	if got := EnvOrDefault("BCHAIN_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("got %q want fallback", got)
	}
	t.Setenv("BCHAIN_TEST_EMPTY", "")
	if got := EnvOrDefault("BCHAIN_TEST_EMPTY", "fallback"); got != "fallback" {
		t.Fatalf("empty value must fall back, got %q", got)
	}
}

func TestEnvOrDefaultInt(t *testing.T) {
	t.Setenv("BCHAIN_TEST_INT", "42")
	if got := EnvOrDefaultInt("BCHAIN_TEST_INT", 7); got != 42 {
		t.Fatalf("got %d want 42", got)
	}
	t.Setenv("BCHAIN_TEST_INT", "not a number")
	if got := EnvOrDefaultInt("BCHAIN_TEST_INT", 7); got != 7 {
		t.Fatalf("got %d want 7", got)
	}
}
