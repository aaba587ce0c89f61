package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
)

// NewCrashesCommand creates the crashes command.
func NewCrashesCommand(opts *RootOptions) *cobra.Command {
	var latest bool
	cmd := &cobra.Command{
		Use:   "crashes",
		Short: "List crash reports left by failed batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dir := cfg.Database.CrashReportDir
			if dir == "" {
				dir = filepath.Dir(cfg.Database.Path)
			}

			files, err := crashreport.List(dir)
			if err != nil {
				return WrapExitError(ExitFailure, "listing crash reports", err)
			}

			p := printer{format: opts.Format, w: cmd.OutOrStdout()}
			if latest {
				if len(files) == 0 {
					return WrapExitError(ExitFailure, "no crash reports in "+dir, nil)
				}
				body, err := os.ReadFile(files[len(files)-1])
				if err != nil {
					return WrapExitError(ExitFailure, "reading crash report", err)
				}
				_, err = p.w.Write(body)
				return err
			}

			if p.json() {
				if files == nil {
					files = []string{}
				}
				return p.encode(files)
			}
			for _, f := range files {
				fmt.Fprintln(p.w, f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "print the newest report instead of listing")
	return cmd
}
