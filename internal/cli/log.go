package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlitelib/internal/taglog"
)

// NewLogCommand creates the log command.
func NewLogCommand(opts *RootOptions) *cobra.Command {
	var (
		tags    []string
		session bool
	)
	cmd := &cobra.Command{
		Use:   "log <message...>",
		Short: "Append a tagged entry to the shared log file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			sink := newTagSink(cfg.TagLog)
			defer func() {
				if err := sink.Close(); err != nil && !errors.Is(err, taglog.ErrSinkClosed) {
					fmt.Fprintf(cmd.ErrOrStderr(), "closing %s: %v\n", sink.Path(), err)
				}
			}()

			logger := taglog.NewWithSink(sink, tags...)
			var id string
			if session {
				id = logger.AddSessionTag()
			}

			if err := logger.WriteLog(strings.Join(args, " ")); err != nil {
				return WrapExitError(ExitFailure, "writing tagged log", err)
			}

			p := printer{format: opts.Format, w: cmd.OutOrStdout()}
			if p.json() {
				return p.encode(map[string]string{"path": sink.Path(), "prefix": logger.Prefix(), "session": id})
			}
			if id != "" {
				fmt.Fprintf(p.w, "session %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "tag to prefix the entry with (repeatable, in order)")
	cmd.Flags().BoolVar(&session, "session", false, "append a random session tag and print it")
	return cmd
}
