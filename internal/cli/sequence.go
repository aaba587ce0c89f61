package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlitelib/internal/sequence"
)

// NewSequenceCommand creates the sequence command group.
func NewSequenceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect and reset AUTOINCREMENT counters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every table's last used id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				all, err := sequence.New(a.exec).All(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "listing sequences", err)
				}
				p := printer{format: opts.Format, w: cmd.OutOrStdout()}
				if p.json() {
					return p.encode(all)
				}
				names := make([]string, 0, len(all))
				for name := range all {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(p.w, "%s\t%d\n", name, all[name])
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "last <table>",
		Short: "Print the last id AUTOINCREMENT handed out for a table (0 if none)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				id, err := sequence.New(a.exec).LastUsedID(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "reading sequence", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <table>",
		Short: "Reset a table's counter to 0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if err := sequence.New(a.exec).Reset(cmd.Context(), args[0]); err != nil {
					return WrapExitError(ExitFailure, "resetting sequence", err)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "register <table>",
		Short: "Add a counter row for a table unless one exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				seq := sequence.New(a.exec)
				if seq.Exists(cmd.Context(), args[0]) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already registered\n", args[0])
					return nil
				}
				if err := seq.Register(cmd.Context(), args[0]); err != nil {
					return WrapExitError(ExitFailure, "registering sequence", err)
				}
				return nil
			})
		},
	})

	return cmd
}
