package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the parts of the config the engine cannot check lazily.
// Trigger expressions themselves are validated at registration time.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if tz := strings.TrimSpace(c.Engine.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("engine.timezone: %w", err)
		}
	}
	if _, err := ParseDurationField("engine.failure_log_every", c.Engine.FailureLogEvery); err != nil {
		return err
	}
	if c.History != nil {
		if _, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(c.Jobs))
	for i := range c.Jobs {
		j := &c.Jobs[i]
		path := fmt.Sprintf("jobs[%d]", i)
		if strings.TrimSpace(j.Name) == "" {
			return fmt.Errorf("%s: name is required", path)
		}
		if _, dup := seen[j.Name]; dup {
			return fmt.Errorf("%s: duplicate job name %q", path, j.Name)
		}
		seen[j.Name] = struct{}{}

		if len(j.Command) == 0 || strings.TrimSpace(j.Command[0]) == "" {
			return fmt.Errorf("%s (%s): command is required", path, j.Name)
		}

		set := 0
		if strings.TrimSpace(j.Cron) != "" {
			set++
		}
		if strings.TrimSpace(j.Every) != "" {
			set++
		}
		if strings.TrimSpace(j.At) != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("%s (%s): exactly one of cron, every, at must be set", path, j.Name)
		}

		if j.Every != "" {
			d, err := ParseDurationField(path+".every", j.Every)
			if err != nil {
				return err
			}
			if d <= 0 {
				return fmt.Errorf("%s (%s): every must be > 0", path, j.Name)
			}
		}
		if j.At != "" {
			if _, err := time.Parse(time.RFC3339, strings.TrimSpace(j.At)); err != nil {
				return fmt.Errorf("%s (%s): at: %w", path, j.Name, err)
			}
		}
		if j.Times < 0 {
			return fmt.Errorf("%s (%s): times must be >= 0", path, j.Name)
		}
		if j.Times > 0 && strings.TrimSpace(j.Every) == "" {
			return fmt.Errorf("%s (%s): times requires an interval (every)", path, j.Name)
		}
		if _, err := ParseDurationField(path+".timeout", j.Timeout); err != nil {
			return err
		}
	}
	return nil
}
