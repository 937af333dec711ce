package config

import (
	"reflect"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_STR", "value")

	tests := []struct {
		name       string
		key        string
		defaultVal string
		expected   string
	}{
		{"set variable", "TEST_STR", "fallback", "value"},
		{"unset variable", "TEST_STR_MISSING", "fallback", "fallback"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := getEnvOrDefault(tc.key, tc.defaultVal); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not-a-number")

	tests := []struct {
		name       string
		key        string
		defaultVal int
		expected   int
	}{
		{"valid int", "TEST_INT", 7, 42},
		{"invalid int", "TEST_INT_BAD", 7, 7},
		{"unset", "TEST_INT_MISSING", 7, 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := getEnvAsIntOrDefault(tc.key, tc.defaultVal); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestGetEnvAsInt64OrDefault(t *testing.T) {
	t.Setenv("TEST_INT64", "104857600")

	if got := getEnvAsInt64OrDefault("TEST_INT64", 1); got != 104857600 {
		t.Errorf("Expected 104857600, got %d", got)
	}
	if got := getEnvAsInt64OrDefault("TEST_INT64_MISSING", 99); got != 99 {
		t.Errorf("Expected default 99, got %d", got)
	}
}

func TestGetEnvAsListOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{"single entry", "gemini-2.5-flash", []string{"gemini-2.5-flash"}},
		{"multiple entries", "a, b ,c", []string{"a", "b", "c"}},
		{"empty entries dropped", "a,,b,", []string{"a", "b"}},
		{"only separators falls back", ", ,", []string{"fallback"}},
		{"unset falls back", "", []string{"fallback"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("TEST_LIST", tc.value)
			}
			got := getEnvAsListOrDefault("TEST_LIST", []string{"fallback"})
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestSynthesisModels(t *testing.T) {
	cfg := &Config{
		GeminiModel:          "gemini-3-flash-preview",
		GeminiFallbackModels: []string{"gemini-2.5-flash"},
	}

	got := cfg.SynthesisModels()
	expected := []string{"gemini-3-flash-preview", "gemini-2.5-flash"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
