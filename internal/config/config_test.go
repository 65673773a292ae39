package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetAndGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Cleanup(viper.Reset)
	viper.Reset()

	Load()
	if err := Set(KeyDenoPath, "/opt/deno/bin/deno"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := Get(KeyDenoPath); got != "/opt/deno/bin/deno" {
		t.Errorf("Get(%s) = %q", KeyDenoPath, got)
	}
	if _, err := os.Stat(filepath.Join(home, ".projinit", "config.yaml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}

func TestProbeTimeout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(viper.Reset)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"default", "", DefaultProbeTimeout},
		{"explicit", "3s", 3 * time.Second},
		{"negative", "-1s", DefaultProbeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			Load()
			if tt.value != "" {
				viper.Set(KeyProbeTimeout, tt.value)
			}
			if got := ProbeTimeout(); got != tt.want {
				t.Errorf("ProbeTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNestedKeyFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROJINIT_ALEPHJS_CLI_CONSTRAINT", ">= 1.0.0")
	t.Cleanup(viper.Reset)
	viper.Reset()

	Load()
	if got := Get(KeyAlephjsCLIMin); got != ">= 1.0.0" {
		t.Errorf("Get(%s) = %q", KeyAlephjsCLIMin, got)
	}
}
