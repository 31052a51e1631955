package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"getmoredone/internal/config"
)

func TestDefaults(t *testing.T) {
	c := config.Default()
	if c.Timer.BlockMinutes != 50 || c.Timer.BreakMinutes != 10 || c.Timer.WarnThresholdMinutes != 5 {
		t.Fatalf("timer defaults = %+v", c.Timer)
	}
	if !c.IncludeSaturday() || !c.IncludeSunday() {
		t.Fatal("weekends should default to included")
	}
}

func TestFromYAML(t *testing.T) {
	c, err := config.FromYAML([]byte(`
timer:
  block_minutes: 25
schedule:
  include_saturday: false
calendar:
  url: http://localhost:9999/events
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Timer.BlockMinutes != 25 {
		t.Fatalf("block = %d", c.Timer.BlockMinutes)
	}
	// unset fields keep their defaults
	if c.Timer.BreakMinutes != 10 {
		t.Fatalf("break = %d", c.Timer.BreakMinutes)
	}
	if c.IncludeSaturday() {
		t.Fatal("saturday should be excluded")
	}
	if !c.IncludeSunday() {
		t.Fatal("sunday should stay included")
	}
	if c.Calendar.URL != "http://localhost:9999/events" {
		t.Fatalf("calendar url = %q", c.Calendar.URL)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want string
	}{
		{"zero block", "timer:\n  block_minutes: 0\n", "block_minutes"},
		{"negative break", "timer:\n  break_minutes: -1\n", "break_minutes"},
		{"negative warn", "timer:\n  warn_threshold_minutes: -1\n", "warn_threshold_minutes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(tc.yml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error about %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Timer.BlockMinutes != 50 {
		t.Fatalf("block = %d", c.Timer.BlockMinutes)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".getmoredone"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.Path(dir), []byte("timer:\n  block_minutes: 90\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Timer.BlockMinutes != 90 {
		t.Fatalf("block = %d", c.Timer.BlockMinutes)
	}
}
