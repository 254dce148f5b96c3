package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"metronome/pkg/logx"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseJSONAndYAML(t *testing.T) {
	t.Parallel()

	jsonBody := `{
  "logging": {"level": "debug", "console": true},
  "engine": {"timezone": "UTC"},
  "jobs": [
    {"name": "backup", "command": ["/usr/local/bin/backup.sh"], "cron": "0 30 3 * * *"}
  ]
}`
	yamlBody := `
logging:
  level: debug
  console: true
engine:
  timezone: UTC
jobs:
  - name: backup
    command: ["/usr/local/bin/backup.sh"]
    cron: "0 30 3 * * *"
`

	jsonPath := writeFile(t, "cfg.json", jsonBody)
	yamlPath := writeFile(t, "cfg.yaml", yamlBody)

	fromJSON, err := NewManager(jsonPath, logx.Nop()).Load()
	if err != nil {
		t.Fatalf("json load: %v", err)
	}
	fromYAML, err := NewManager(yamlPath, logx.Nop()).Load()
	if err != nil {
		t.Fatalf("yaml load: %v", err)
	}
	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Fatalf("json and yaml parse diverged:\n%+v\n%+v", fromJSON, fromYAML)
	}
	if fromJSON.Jobs[0].Cron != "0 30 3 * * *" {
		t.Fatalf("cron field lost: %+v", fromJSON.Jobs[0])
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "cfg.json", `{"loging": {"level": "info"}, "jobs": []}`)
	if _, err := NewManager(path, logx.Nop()).Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	job := func(mut func(*JobSpec)) Config {
		j := JobSpec{Name: "j", Command: []string{"/bin/true"}, Every: "5s"}
		if mut != nil {
			mut(&j)
		}
		return Config{Jobs: []JobSpec{j}}
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"interval job ok", job(nil), false},
		{"cron job ok", job(func(j *JobSpec) { j.Every = ""; j.Cron = "@hourly" }), false},
		{"one-shot ok", job(func(j *JobSpec) { j.Every = ""; j.At = "2026-09-01T06:00:00Z" }), false},
		{"missing name", job(func(j *JobSpec) { j.Name = " " }), true},
		{"missing command", job(func(j *JobSpec) { j.Command = nil }), true},
		{"no trigger", job(func(j *JobSpec) { j.Every = "" }), true},
		{"two triggers", job(func(j *JobSpec) { j.Cron = "@daily" }), true},
		{"bad every", job(func(j *JobSpec) { j.Every = "fast" }), true},
		{"negative every", job(func(j *JobSpec) { j.Every = "-1s" }), true},
		{"bad at", job(func(j *JobSpec) { j.Every = ""; j.At = "tomorrow" }), true},
		{"bounded interval ok", job(func(j *JobSpec) { j.Times = 3 }), false},
		{"times without every", job(func(j *JobSpec) { j.Every = ""; j.Cron = "@daily"; j.Times = 2 }), true},
		{"bad timezone", func() Config {
			c := job(nil)
			c.Engine.Timezone = "Mars/Olympus"
			return c
		}(), true},
		{"duplicate names", Config{Jobs: []JobSpec{
			{Name: "j", Command: []string{"a"}, Every: "1s"},
			{Name: "j", Command: []string{"b"}, Every: "2s"},
		}}, true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidWithoutCommit(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "cfg.json", `{"jobs": [{"name": "j", "command": ["x"], "every": "nope"}]}`)
	m := NewManager(path, logx.Nop())
	if _, err := m.Load(); err == nil {
		t.Fatal("expected validation error")
	}
	if m.Get() != nil {
		t.Fatal("invalid config must not be committed")
	}
}

func TestDiffJobs(t *testing.T) {
	t.Parallel()

	oldJobs := []JobSpec{
		{Name: "a", Command: []string{"x"}, Every: "5s"},
		{Name: "b", Command: []string{"y"}, Cron: "@daily"},
		{Name: "c", Command: []string{"z"}, Every: "1m"},
	}
	newJobs := []JobSpec{
		{Name: "a", Command: []string{"x"}, Every: "5s"},  // unchanged
		{Name: "b", Command: []string{"y"}, Cron: "@hourly"}, // edited
		{Name: "d", Command: []string{"w"}, Every: "2m"},  // added, c removed
	}

	got := diffJobs(oldJobs, newJobs)
	want := []string{"b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("diffJobs = %v, want %v", got, want)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	if d, err := ParseDurationField("x", "  "); err != nil || d != 0 {
		t.Fatalf("empty = (%v, %v)", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative duration accepted")
	}
	if _, err := ParseDurationField("x", "5 seconds"); err == nil {
		t.Fatal("garbage duration accepted")
	}
	if _, err := ParseDurationField("jobs[0].timeout", "-5s"); err == nil || !strings.Contains(err.Error(), "jobs[0].timeout") {
		t.Fatalf("error should carry the field path, got %v", err)
	}
}
