package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Database   string
	Verbose    bool
	Format     string // "json" | "text"
	NoColor    bool

	build BuildInfo
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// configEnv names the environment variable consulted when --config is unset.
const configEnv = "SQLITELIB_CONFIG"

// NewRootCommand creates the sqlitelib command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &RootOptions{build: info}

	cmd := &cobra.Command{
		Use:   "sqlitelib",
		Short: "Transactional SQLite batches with crash reports and a tagged log",
		Long: `sqlitelib runs statements and all-or-nothing batches against a SQLite file.

A failed batch is rolled back and leaves a crash report next to the database;
a batch that finds the database locked is skipped. With --verbose every
failure is also appended to the shared tagged log.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flag",
					fmt.Errorf("format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.NoColor {
				color.NoColor = true
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (YAML, or TOML for *.toml); defaults to $"+configEnv)
	flags.StringVar(&opts.Database, "db", "", "database file, overrides database.path")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "forward failures to the tagged log")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewScalarCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewSequenceCommand(opts))
	cmd.AddCommand(NewCrashesCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewHealthCommand(opts))

	return cmd
}

// configPath resolves --config, falling back to $SQLITELIB_CONFIG. An
// empty result means built-in defaults.
func (o *RootOptions) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return os.Getenv(configEnv)
}
