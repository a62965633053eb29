package config

import (
	"testing"
	"time"
)

func TestEnvIntDefaults(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{"unset uses default", "", 30, 30},
		{"valid value parsed", "7", 30, 7},
		{"garbage falls back", "thirty", 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_RETENTION", tt.value)
			}
			if got := envInt("TEST_RETENTION", tt.def); got != tt.want {
				t.Errorf("envInt(%q, %d) = %d, want %d", tt.value, tt.def, got, tt.want)
			}
		})
	}
}

func TestEnvDurDefaults(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{"unset uses default", "", time.Minute, time.Minute},
		{"valid duration parsed", "30s", time.Minute, 30 * time.Second},
		{"garbage falls back", "soon", time.Minute, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_SWEEP", tt.value)
			}
			if got := envDur("TEST_SWEEP", tt.def); got != tt.want {
				t.Errorf("envDur(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"1", false, true},
		{"yes", false, true},
		{"ON", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_FLAG", tt.value)
			}
			if got := envBool("TEST_FLAG", tt.def); got != tt.want {
				t.Errorf("envBool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}
