package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"metronome/internal/config"
	"metronome/internal/scheduler"
	"metronome/pkg/logx"
)

const maxOutputInError = 512

// commandJob runs one configured shell command per fire.
type commandJob struct {
	argv    []string
	dir     string
	env     map[string]string
	timeout time.Duration
	log     logx.Logger
}

func (j commandJob) Execute(ctx context.Context, _ scheduler.JobConfig) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, j.argv[0], j.argv[1:]...)
	cmd.Dir = j.dir
	if len(j.env) > 0 {
		cmd.Env = append(os.Environ(), flattenEnv(j.env)...)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s: timed out after %s", j.argv[0], j.timeout)
		}
		return fmt.Errorf("%s: %w%s", j.argv[0], err, outputSuffix(out))
	}
	j.log.Debug("command finished", logx.String("cmd", j.argv[0]), logx.Int("output_bytes", len(out)))
	return nil
}

func flattenEnv(env map[string]string) []string {
	kv := make([]string, 0, len(env))
	for k, v := range env {
		kv = append(kv, k+"="+v)
	}
	sort.Strings(kv)
	return kv
}

func outputSuffix(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	if len(s) > maxOutputInError {
		s = s[:maxOutputInError] + "..."
	}
	return ": " + s
}

// registerJob registers (or replaces, same name) one configured job.
func (d *Daemon) registerJob(spec config.JobSpec) error {
	timeout, err := config.ParseDurationField("timeout", spec.Timeout)
	if err != nil {
		return err
	}
	job := commandJob{
		argv:    spec.Command,
		dir:     spec.Dir,
		env:     spec.Env,
		timeout: timeout,
		log:     d.log.With(logx.String("job", spec.Name)),
	}
	cfg := scheduler.JobConfig{
		scheduler.KeyName:       spec.Name,
		scheduler.KeyConcurrent: spec.Concurrent,
	}

	switch {
	case strings.TrimSpace(spec.Cron) != "":
		return d.engine.AddJob(spec.Name, job, cfg, spec.Cron, spec.Concurrent)
	case strings.TrimSpace(spec.Every) != "":
		every, err := config.ParseDurationField("every", spec.Every)
		if err != nil {
			return err
		}
		if spec.Times > 0 {
			// First fire one interval out, matching the unbounded form.
			if !d.engine.FireJobAtRepeated(spec.Name, job, cfg, time.Now().Add(every), spec.Times, every) {
				return fmt.Errorf("job %q: bounded interval rejected", spec.Name)
			}
			return nil
		}
		return d.engine.AddPeriodicJob(spec.Name, job, cfg, every, spec.Concurrent)
	default:
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(spec.At))
		if err != nil {
			return err
		}
		return d.engine.FireJobAt(spec.Name, job, cfg, at)
	}
}

// applyJobs reconciles the engine against the new config. Changed specs are
// re-registered (replace-by-name), removed specs are cancelled. A one-shot
// that already fired and retired is simply gone; removal then is not an error.
func (d *Daemon) applyJobs(changed []string, newCfg *config.Config) {
	byName := make(map[string]config.JobSpec, len(newCfg.Jobs))
	for _, j := range newCfg.Jobs {
		byName[j.Name] = j
	}

	for _, name := range changed {
		spec, ok := byName[name]
		if !ok {
			if err := d.engine.RemoveJob(name); err != nil {
				d.log.Debug("job already gone", logx.String("job", name), logx.Err(err))
			} else {
				d.log.Info("job removed", logx.String("job", name))
			}
			continue
		}
		if err := d.registerJob(spec); err != nil {
			d.log.Error("job rejected on reload", logx.String("job", name), logx.Err(err))
			continue
		}
		d.log.Info("job registered", logx.String("job", name), logx.String("trigger", describeSpec(spec)))
	}
}

func describeSpec(spec config.JobSpec) string {
	switch {
	case spec.Cron != "":
		return "cron " + spec.Cron
	case spec.Times > 0:
		return fmt.Sprintf("every %s x%d", spec.Every, spec.Times)
	case spec.Every != "":
		return "every " + spec.Every
	default:
		return "at " + spec.At
	}
}
