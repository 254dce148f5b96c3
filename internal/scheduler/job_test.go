package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureJob struct {
	got JobConfig
}

func (j *captureJob) Execute(_ context.Context, cfg JobConfig) error {
	j.got = cfg
	return nil
}

func TestResolveRunnerShapes(t *testing.T) {
	t.Parallel()
	cfg := JobConfig{"k": "v"}

	t.Run("structured job", func(t *testing.T) {
		j := &captureJob{}
		run, err := resolveRunner(j)
		if err != nil {
			t.Fatalf("resolveRunner error: %v", err)
		}
		if err := run(context.Background(), cfg); err != nil {
			t.Fatalf("run error: %v", err)
		}
		if j.got["k"] != "v" {
			t.Fatal("structured job did not receive config")
		}
	})

	t.Run("job func", func(t *testing.T) {
		var got JobConfig
		run, err := resolveRunner(JobFunc(func(_ context.Context, cfg JobConfig) error {
			got = cfg
			return nil
		}))
		if err != nil {
			t.Fatalf("resolveRunner error: %v", err)
		}
		_ = run(context.Background(), cfg)
		if got["k"] != "v" {
			t.Fatal("JobFunc did not receive config")
		}
	})

	t.Run("ctx func", func(t *testing.T) {
		called := false
		run, err := resolveRunner(func(_ context.Context) error { called = true; return nil })
		if err != nil {
			t.Fatalf("resolveRunner error: %v", err)
		}
		_ = run(context.Background(), nil)
		if !called {
			t.Fatal("ctx func not invoked")
		}
	})

	t.Run("plain func", func(t *testing.T) {
		called := false
		run, err := resolveRunner(func() { called = true })
		if err != nil {
			t.Fatalf("resolveRunner error: %v", err)
		}
		_ = run(context.Background(), nil)
		if !called {
			t.Fatal("plain func not invoked")
		}
	})

	t.Run("rejected shapes", func(t *testing.T) {
		for _, job := range []any{nil, 42, "job", func(int) error { return nil }} {
			if _, err := resolveRunner(job); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("job %T: error = %v, want ErrInvalidArgument", job, err)
			}
		}
	})
}

func TestWellKnownConfigKeys(t *testing.T) {
	t.Parallel()

	t.Run("explicit parameters win", func(t *testing.T) {
		cfg := JobConfig{
			KeyName:       "from-config",
			KeyExpression: "@daily",
			KeyPeriod:     30,
		}
		if got := nameFromConfig("explicit", cfg); got != "explicit" {
			t.Fatalf("name = %q, want explicit", got)
		}
		if got := expressionFromConfig("@hourly", cfg); got != "@hourly" {
			t.Fatalf("expression = %q, want @hourly", got)
		}
		if got := periodFromConfig(time.Minute, cfg); got != time.Minute {
			t.Fatalf("period = %v, want 1m", got)
		}
	})

	t.Run("config fallback", func(t *testing.T) {
		cfg := JobConfig{
			KeyName:       "cfg-name",
			KeyExpression: "@daily",
			KeyConcurrent: true,
		}
		if got := nameFromConfig("", cfg); got != "cfg-name" {
			t.Fatalf("name = %q, want cfg-name", got)
		}
		if got := expressionFromConfig("", cfg); got != "@daily" {
			t.Fatalf("expression = %q, want @daily", got)
		}
		if !concurrentFromConfig(false, cfg) {
			t.Fatal("concurrent fallback not applied")
		}
	})

	t.Run("period value kinds", func(t *testing.T) {
		tests := []struct {
			name string
			val  any
			want time.Duration
		}{
			{name: "seconds int", val: 30, want: 30 * time.Second},
			{name: "seconds int64", val: int64(5), want: 5 * time.Second},
			{name: "duration", val: 90 * time.Second, want: 90 * time.Second},
			{name: "duration string", val: "2h30m", want: 2*time.Hour + 30*time.Minute},
		}
		for _, tt := range tests {
			got := periodFromConfig(0, JobConfig{KeyPeriod: tt.val})
			if got != tt.want {
				t.Fatalf("%s: period = %v, want %v", tt.name, got, tt.want)
			}
		}
	})
}
