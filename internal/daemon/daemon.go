package daemon

import (
	"context"
	"strings"
	"sync"

	"metronome/internal/config"
	"metronome/internal/eventbus"
	"metronome/internal/history"
	"metronome/internal/scheduler"
	"metronome/pkg/logx"
)

type Daemon struct {
	cfgm *config.Manager

	log      logx.Logger
	logClose func() error

	bus    eventbus.Bus
	engine *scheduler.Engine

	store    history.Store
	recorder *history.Recorder

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads the config at cfgPath and builds the full service. Nothing is
// running yet; call Start.
func New(cfgPath string) (*Daemon, error) {
	cfgm := config.NewManager(cfgPath, logx.NewConsole("info"))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log, logClose := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	bus := eventbus.New()

	hcfg := history.Config{}
	if cfg.History != nil {
		busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
		if err != nil {
			_ = logClose()
			return nil, err
		}
		hcfg = history.Config{
			Driver:      cfg.History.Driver,
			Path:        cfg.History.Path,
			BusyTimeout: busy,
			Keep:        cfg.History.Keep,
		}
	}
	store, err := history.Open(hcfg, log.With(logx.String("comp", "history")))
	if err != nil {
		_ = logClose()
		return nil, err
	}

	failEvery, err := config.ParseDurationField("engine.failure_log_every", cfg.Engine.FailureLogEvery)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = logClose()
		return nil, err
	}
	engine := scheduler.New(scheduler.Config{
		Timezone:        cfg.Engine.Timezone,
		FailureLogEvery: failEvery,
		FailureLogBurst: cfg.Engine.FailureLogBurst,
	}, log.With(logx.String("comp", "engine")), bus)

	return &Daemon{
		cfgm:     cfgm,
		log:      log.With(logx.String("comp", "daemon")),
		logClose: logClose,
		bus:      bus,
		engine:   engine,
		store:    store,
	}, nil
}

// Engine exposes the scheduling engine for embedding callers.
func (d *Daemon) Engine() *scheduler.Engine { return d.engine }

// Start brings the service up: history recorder, engine, configured jobs,
// and the config watcher. Cancelling ctx kills running commands too; for a
// shutdown that lets them finish, leave ctx alive and call Stop.
func (d *Daemon) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.store != nil {
		d.recorder = history.NewRecorder(d.store, d.bus, d.log.With(logx.String("comp", "history")))
	}

	// The engine gets the outer ctx so a clean Stop lets in-flight commands
	// finish; only the watcher goroutines hang off runCtx.
	d.engine.Start(ctx)

	cfg := d.cfgm.Get()
	for _, spec := range cfg.Jobs {
		if err := d.registerJob(spec); err != nil {
			d.log.Error("job rejected", logx.String("job", spec.Name), logx.Err(err))
			continue
		}
		d.log.Info("job registered", logx.String("job", spec.Name), logx.String("trigger", describeSpec(spec)))
	}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		_ = d.cfgm.Watch(runCtx)
	}()
	go d.reloadLoop(runCtx)

	return nil
}

// reloadLoop applies config updates published by the watcher. Job changes
// land on the live engine; logging or engine section changes only take
// effect on restart and are called out in the log.
func (d *Daemon) reloadLoop(ctx context.Context) {
	defer d.wg.Done()
	sub := d.cfgm.Subscribe(8)
	defer d.cfgm.Unsubscribe(sub)

	last := d.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs, jobsChanged := config.SummarizeChange(last, newCfg)
			if len(sections) == 0 {
				continue
			}
			d.log.Info("config changed", append([]logx.Field{
				logx.String("sections", strings.Join(sections, ",")),
			}, attrs...)...)

			for _, s := range sections {
				if s != "jobs" {
					d.log.Warn("section change needs a restart to apply", logx.String("section", s))
				}
			}
			if len(jobsChanged) > 0 {
				d.applyJobs(jobsChanged, newCfg)
			}
			last = newCfg
		}
	}
}

// Stop shuts everything down in dependency order: watcher, engine (waiting
// for in-flight runs until ctx expires), recorder, store, log sinks.
func (d *Daemon) Stop(ctx context.Context) {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()

	d.engine.Stop(ctx)

	if d.recorder != nil {
		d.recorder.Stop()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.logClose != nil {
		_ = d.logClose()
	}
}
