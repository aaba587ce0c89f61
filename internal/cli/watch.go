package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlitelib/internal/infrastructure/logging"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/mqtt"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	var batches bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow crash notifications from every database on the MQTT broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.MQTT.Enabled {
				return WrapExitError(ExitCommandError, "mqtt is disabled in the configuration", nil)
			}

			log := logging.New(cfg.Logging, opts.build.Version)
			defer log.Close() //nolint:errcheck // nothing to report to

			client, err := mqtt.Connect(cfg.MQTT)
			if err != nil {
				return WrapExitError(ExitFailure, "connecting to mqtt", err)
			}
			defer client.Close() //nolint:errcheck // Close never fails
			client.SetLogger(log)

			w := &lockedWriter{w: cmd.OutOrStdout()}
			if err := client.Subscribe(mqtt.Topics{}.AllCrashes(), byte(cfg.MQTT.QoS), crashPrinter(w)); err != nil {
				return WrapExitError(ExitFailure, "subscribing", err)
			}
			if batches {
				if err := client.Subscribe(mqtt.Topics{}.AllBatches(), byte(cfg.MQTT.QoS), batchPrinter(w)); err != nil {
					return WrapExitError(ExitFailure, "subscribing", err)
				}
			}

			color.New(color.FgHiBlack).Fprintf(w, "watching %s (Ctrl+C to stop)\n", mqtt.Topics{}.AllCrashes()) //nolint:errcheck // terminal output
			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&batches, "batches", false, "also print every batch outcome")
	return cmd
}

// lockedWriter serialises writes from concurrent MQTT handlers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func crashPrinter(w io.Writer) mqtt.MessageHandler {
	red := color.New(color.FgRed, color.Bold)
	return func(_ string, payload []byte) error {
		n, err := mqtt.ParseCrashNotification(payload)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s %s %s\n  %s\n  origin: %s\n  report: %s\n",
			n.Time.Local().Format("15:04:05"), red.Sprint("CRASH"), n.Database, n.Message, n.Origin, n.Path)
		return err
	}
}

func batchPrinter(w io.Writer) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		n, err := mqtt.ParseBatchNotification(payload)
		if err != nil {
			return err
		}
		c := color.New(color.FgGreen)
		switch n.Outcome {
		case "lock_contention":
			c = color.New(color.FgYellow)
		case "recorded_failure":
			c = color.New(color.FgRed)
		}
		_, err = fmt.Fprintf(w, "%s %s %d statement(s) %.1fms\n", c.Sprint(n.Outcome), n.Database, n.Statements, n.DurationMS)
		return err
	}
}
