package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// JobConfig is an opaque payload handed to the unit of work on every fire.
// The engine does not interpret it except for the well-known keys below,
// which are read once at registration time.
type JobConfig map[string]any

// Well-known config keys. They mirror the explicit registration parameters;
// the explicit parameter always wins and the config value is only consulted
// when the parameter is zero-valued.
const (
	KeyPeriod     = "scheduler.period"     // seconds (int) or duration string
	KeyExpression = "scheduler.expression" // cron expression
	KeyConcurrent = "scheduler.concurrent" // bool
	KeyName       = "scheduler.name"       // job name
)

// Job is the structured, config-aware unit-of-work shape.
type Job interface {
	Execute(ctx context.Context, cfg JobConfig) error
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc func(ctx context.Context, cfg JobConfig) error

func (f JobFunc) Execute(ctx context.Context, cfg JobConfig) error { return f(ctx, cfg) }

// runner is the resolved execution shape all entries share.
type runner func(ctx context.Context, cfg JobConfig) error

// resolveRunner maps the accepted unit-of-work shapes onto a runner.
//
// Accepted: Job (config-aware), func(ctx, cfg) error, func(ctx) error, and
// func() (config-ignorant callable). Anything else is rejected at
// registration time.
func resolveRunner(job any) (runner, error) {
	switch j := job.(type) {
	case Job:
		return j.Execute, nil
	case func(ctx context.Context, cfg JobConfig) error:
		return j, nil
	case func(ctx context.Context) error:
		return func(ctx context.Context, _ JobConfig) error { return j(ctx) }, nil
	case func():
		return func(context.Context, JobConfig) error { j(); return nil }, nil
	case nil:
		return nil, fmt.Errorf("%w: job is nil", ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("%w: job type %T is neither a Job nor a supported callable", ErrInvalidArgument, job)
	}
}

// nameFromConfig returns the explicit name, falling back to the well-known
// config key when the parameter is empty.
func nameFromConfig(name string, cfg JobConfig) string {
	if strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if v, ok := cfg[KeyName].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// expressionFromConfig falls back to the well-known expression key.
func expressionFromConfig(expr string, cfg JobConfig) string {
	if strings.TrimSpace(expr) != "" {
		return strings.TrimSpace(expr)
	}
	if v, ok := cfg[KeyExpression].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// periodFromConfig falls back to the well-known period key. Integer values
// are seconds, strings are Go duration syntax.
func periodFromConfig(period time.Duration, cfg JobConfig) time.Duration {
	if period > 0 {
		return period
	}
	switch v := cfg[KeyPeriod].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return period
}

// concurrentFromConfig falls back to the well-known concurrency key when the
// parameter carries its zero value.
func concurrentFromConfig(concurrent bool, cfg JobConfig) bool {
	if concurrent {
		return true
	}
	if v, ok := cfg[KeyConcurrent].(bool); ok {
		return v
	}
	return concurrent
}
