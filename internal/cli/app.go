package cli

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
	"github.com/nerrad567/sqlitelib/internal/executor"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/config"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/database"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/influxdb"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/logging"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/mqtt"
	"github.com/nerrad567/sqlitelib/internal/taglog"
)

// app is the set of services one command invocation works with.
type app struct {
	cfg    *config.Config
	log    *logging.Logger
	sink   *taglog.Sink
	tags   *taglog.Logger
	exec   *executor.Executor
	mqtt   *mqtt.Client
	influx *influxdb.Client
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Database.Verbose = true
	}
	return cfg, nil
}

// newTagSink builds the tagged log sink described by cfg.
func newTagSink(cfg config.TagLogConfig) *taglog.Sink {
	return taglog.NewSink(cfg.Path, taglog.WithRetryPolicy(taglog.RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff(),
		MaxBackoff:     cfg.MaxBackoff(),
	}))
}

// openApp loads configuration and opens the executor. MQTT and InfluxDB are
// connected when enabled; a failure there is logged and the command goes on
// without them.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.log = logging.New(cfg.Logging, opts.build.Version)
	a.sink = newTagSink(cfg.TagLog)
	a.tags = taglog.NewWithSink(a.sink)

	a.exec, err = executor.New(executor.Config{
		Path:           cfg.Database.Path,
		Name:           cfg.Database.Name,
		Verbose:        cfg.Database.Verbose,
		CrashReportDir: cfg.Database.CrashReportDir,
		BusyTimeout:    cfg.Database.BusyTimeout(),
		CommandTimeout: cfg.Database.CommandTimeout,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
	}, executor.WithLogger(a.log), executor.WithTagLog(a.tags))
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}

	if cfg.MQTT.Enabled {
		if a.mqtt, err = mqtt.Connect(cfg.MQTT); err != nil {
			a.log.Warn("mqtt unavailable, crash notifications disabled", "error", err)
		} else {
			a.mqtt.SetLogger(a.log)
		}
	}
	if cfg.InfluxDB.Enabled {
		if a.influx, err = influxdb.Connect(cfg.InfluxDB); err != nil {
			a.log.Warn("influxdb unavailable, metrics disabled", "error", err)
		} else {
			a.influx.SetOnError(func(err error) {
				a.log.Error("influxdb write error", "error", err)
			})
		}
	}

	wireNotifiers(a.exec, a.mqtt, a.influx, a.log)
	return a, nil
}

// notifier forwards executor events. A nil client is skipped.
type notifier struct {
	database string
	mqtt     *mqtt.Client
	influx   *influxdb.Client
	log      *logging.Logger
	now      func() time.Time
}

// wireNotifiers registers executor callbacks that forward batch outcomes,
// crash reports and statement failures to MQTT and InfluxDB.
func wireNotifiers(exec *executor.Executor, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) {
	n := &notifier{
		database: exec.Name(),
		mqtt:     mqttClient,
		influx:   influxClient,
		log:      log,
		now:      time.Now,
	}
	exec.SetOnBatch(n.batch)
	exec.SetOnCrashReport(n.crashReport)
	exec.SetOnStatementError(n.statementError)
}

func (n *notifier) batch(res executor.BatchResult) {
	if n.influx != nil {
		n.influx.WriteBatch(influxdb.BatchSample{
			Database:    res.Database,
			Outcome:     res.Outcome.String(),
			Statements:  res.Statements,
			FailedIndex: res.FailedIndex,
			Duration:    res.Duration,
			Time:        n.now(),
		})
	}
	if n.mqtt != nil {
		msg := mqtt.BatchNotification{
			Database:    res.Database,
			Outcome:     res.Outcome.String(),
			Statements:  res.Statements,
			FailedIndex: res.FailedIndex,
			DurationMS:  float64(res.Duration) / float64(time.Millisecond),
			ReportPath:  res.ReportPath,
		}
		if res.Err != nil {
			msg.Error = res.Err.Error()
		}
		if err := n.mqtt.PublishBatch(msg); err != nil {
			n.log.Warn("publishing batch outcome failed", "error", err)
		}
	}
}

func (n *notifier) crashReport(report crashreport.Report, path string) {
	if n.mqtt == nil {
		return
	}
	if err := n.mqtt.PublishCrashReport(n.database, report, path); err != nil {
		n.log.Warn("publishing crash report failed", "report", path, "error", err)
	}
}

func (n *notifier) statementError(op string, err error) {
	if n.influx == nil {
		return
	}
	n.influx.WriteStatementFailure(influxdb.StatementFailure{
		Database:       n.database,
		Operation:      op,
		LockContention: database.IsLockContention(err),
		Time:           n.now(),
	})
}

// Close releases everything openApp acquired, in reverse order.
func (a *app) Close() {
	if a.influx != nil {
		a.influx.Close() //nolint:errcheck // Close only flushes
	}
	if a.mqtt != nil {
		a.mqtt.Close() //nolint:errcheck // Close never fails
	}
	if a.exec != nil {
		if err := a.exec.Close(); err != nil {
			a.log.Error("closing database", "error", err)
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil && !errors.Is(err, taglog.ErrSinkClosed) {
			a.log.Error("closing tagged log", "error", err)
		}
	}
	a.log.Close() //nolint:errcheck // nothing to report to
}

// healthCheck verifies every connected service answers.
func (a *app) healthCheck(ctx context.Context) error {
	if err := a.exec.HealthCheck(ctx); err != nil {
		return err
	}
	if a.mqtt != nil {
		if err := a.mqtt.HealthCheck(ctx); err != nil {
			return err
		}
	}
	if a.influx != nil {
		if err := a.influx.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}
