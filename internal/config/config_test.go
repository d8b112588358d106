package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1024 || cfg.Height != 768 {
		t.Errorf("box = %gx%g, want 1024x768", cfg.Width, cfg.Height)
	}
	if cfg.TargetHost != "127.0.0.1" || cfg.TargetPort != 9000 {
		t.Errorf("target = %s:%d", cfg.TargetHost, cfg.TargetPort)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JUNCTIONBOX_WIDTH", "800")
	t.Setenv("JUNCTIONBOX_TARGET_PORT", "57120")
	t.Setenv("JUNCTIONBOX_SCENE", "scene.yaml")
	t.Setenv("JUNCTIONBOX_WATCH", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 800 || cfg.TargetPort != 57120 || !cfg.Watch || cfg.Scene != "scene.yaml" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("JUNCTIONBOX_TARGET_HOST=10.1.1.1\nJUNCTIONBOX_HEIGHT=600\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JUNCTIONBOX_HEIGHT", "500")
	t.Cleanup(func() { os.Unsetenv("JUNCTIONBOX_TARGET_HOST") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetHost != "10.1.1.1" {
		t.Errorf("TargetHost = %q, want file value", cfg.TargetHost)
	}
	if cfg.Height != 500 {
		t.Errorf("Height = %g, want environment value 500", cfg.Height)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Width: 10, Height: 10, TargetHost: "h", TargetPort: 1}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero width", func(c *Config) { c.Width = 0 }, "bounding box"},
		{"port range", func(c *Config) { c.TargetPort = 70000 }, "target port"},
		{"empty host", func(c *Config) { c.TargetHost = " " }, "target host"},
		{"watch without scene", func(c *Config) { c.Watch = true }, "watch requires"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsBadValue(t *testing.T) {
	t.Setenv("JUNCTIONBOX_TARGET_PORT", "not-a-port")
	if _, err := Load(""); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("JUNCTIONBOX_TARGET_PORT", "7000")
	t.Setenv("JUNCTIONBOX_LOG_LEVEL", "warn")

	fs := flag.NewFlagSet("junctionbox", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-target-port", "8000", "-window", "-takes", "t.db", "-list-takes"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetPort != 8000 {
		t.Errorf("TargetPort = %d, want flag value 8000", cfg.TargetPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env value warn", cfg.LogLevel)
	}
	if !cfg.Window || !cfg.ListTakes || cfg.TakesDB != "t.db" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseConfigValidates(t *testing.T) {
	fs := flag.NewFlagSet("junctionbox", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-save-take", "x"}, ""); err == nil {
		t.Error("save-take without a take library should fail")
	}
}
