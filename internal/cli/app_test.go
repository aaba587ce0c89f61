package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
	"github.com/nerrad567/sqlitelib/internal/executor"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/logging"
)

func TestNotifier_NilClientsAreSkipped(t *testing.T) {
	n := &notifier{database: "inventory", log: logging.Discard(), now: time.Now}

	assert.NotPanics(t, func() {
		n.batch(executor.BatchResult{Outcome: executor.RecordedFailure, Database: "inventory", Err: errors.New("boom")})
		n.crashReport(crashreport.Report{ID: "x"}, "/tmp/report.txt")
		n.statementError("ExecuteNonQuery", errors.New("boom"))
	})
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	e := newEnv(t)
	opts := &RootOptions{ConfigPath: e.config, Database: "/elsewhere/other.db", Verbose: true}

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/other.db", cfg.Database.Path)
	assert.True(t, cfg.Database.Verbose)
	assert.Equal(t, e.tagLog, cfg.TagLog.Path)
}

func TestOpenApp_WiresExecutor(t *testing.T) {
	e := newEnv(t)
	a, err := openApp(&RootOptions{ConfigPath: e.config, build: BuildInfo{Version: "test"}})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "inventory", a.exec.Name())
	assert.Equal(t, e.crashDir, a.exec.CrashReportDir())
	assert.Nil(t, a.mqtt)
	assert.Nil(t, a.influx)
	assert.Equal(t, e.tagLog, a.sink.Path())
}
