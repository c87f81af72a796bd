// Package env contains utilities to manage environment variables
package env

import (
	"os"
	"testing"
	"time"
)

func setupEnv(key, value string) func() {
	os.Setenv(key, value)
	return func() { os.Unsetenv(key) }
}

func TestGetEnv(t *testing.T) {
	defer setupEnv("TEST_KEY", "hello")()
	if v := GetEnv("TEST_KEY", "default"); v != "hello" {
		t.Errorf("GetEnv failed: expected hello got %s", v)
	}
	if v := GetEnv("MISSING_KEY", "default"); v != "default" {
		t.Errorf("GetEnv failed: expected default got %s", v)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	defer setupEnv("TEST_INT", "42")()
	if v := GetEnvAsInt("TEST_INT", 0); v != 42 {
		t.Errorf("GetEnvAsInt failed: expected 42 got %d", v)
	}
	if v := GetEnvAsInt("MISSING_INT", 7); v != 7 {
		t.Errorf("GetEnvAsInt failed: expected 7 got %d", v)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	defer setupEnv("TEST_BOOL", "true")()
	if v := GetEnvAsBool("TEST_BOOL", false); !v {
		t.Errorf("GetEnvAsBool failed: expected true got false")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	defer setupEnv("TEST_DURATION", "500")()
	if v := GetEnvAsDuration("TEST_DURATION", 0); v != 500*time.Millisecond {
		t.Errorf("GetEnvAsDuration failed: expected 500ms got %v", v)
	}
}
