package config

import (
	"reflect"
	"sort"
	"strings"

	"metronome/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections, safe structured
// attrs for logging, and the names of jobs that were added, removed, or edited.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field, []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Engine, newCfg.Engine) {
		changed = append(changed, "engine")
		attrs = append(attrs,
			logx.String("engine.timezone", strings.TrimSpace(newCfg.Engine.Timezone)),
			logx.String("engine.failure_log_every", strings.TrimSpace(newCfg.Engine.FailureLogEvery)),
		)
	}

	// Nil history section means the in-memory default.
	oldH, newH := derefHistory(oldCfg.History), derefHistory(newCfg.History)
	if oldH != newH {
		changed = append(changed, "history")
		attrs = append(attrs,
			logx.String("history.driver", strings.TrimSpace(newH.Driver)),
			logx.Bool("history.path_set", strings.TrimSpace(newH.Path) != ""),
		)
	}

	jobsChanged := diffJobs(oldCfg.Jobs, newCfg.Jobs)
	if len(jobsChanged) > 0 {
		changed = append(changed, "jobs")
		attrs = append(attrs,
			logx.Int("jobs.changed_count", len(jobsChanged)),
			logx.Int("jobs.total", len(newCfg.Jobs)),
		)
	}

	sort.Strings(changed)
	return changed, attrs, jobsChanged
}

func derefHistory(h *HistoryConfig) HistoryConfig {
	if h == nil {
		return HistoryConfig{}
	}
	return *h
}

// diffJobs compares job specs by name and returns every name present in only
// one side or whose spec differs. The result is sorted.
func diffJobs(oldJobs, newJobs []JobSpec) []string {
	oldM := make(map[string]JobSpec, len(oldJobs))
	for _, j := range oldJobs {
		oldM[j.Name] = j
	}
	newM := make(map[string]JobSpec, len(newJobs))
	for _, j := range newJobs {
		newM[j.Name] = j
	}

	set := map[string]struct{}{}
	for name := range oldM {
		set[name] = struct{}{}
	}
	for name := range newM {
		set[name] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		o, inOld := oldM[name]
		n, inNew := newM[name]
		if inOld != inNew || !reflect.DeepEqual(o, n) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
