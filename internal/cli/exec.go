package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// withApp opens the app for the duration of fn.
func withApp(opts *RootOptions, fn func(*app) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func addParamFlag(cmd *cobra.Command, params *[]string) {
	cmd.Flags().StringArrayVarP(params, "param", "p", nil, "bind a parameter as name[:type]=value (repeatable)")
}

// NewExecCommand creates the exec command.
func NewExecCommand(opts *RootOptions) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run one statement and print the rows affected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := buildStatement(args[0], params)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				n, err := a.exec.ExecuteNonQuery(cmd.Context(), stmt)
				if err != nil {
					return WrapExitError(ExitFailure, "exec failed", err)
				}
				p := printer{format: opts.Format, w: cmd.OutOrStdout()}
				if p.json() {
					return p.encode(map[string]int64{"rows_affected": n})
				}
				fmt.Fprintf(p.w, "%d row(s) affected\n", n)
				return nil
			})
		},
	}
	addParamFlag(cmd, &params)
	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query and print every row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := buildStatement(args[0], params)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				rows, err := a.exec.ExecuteReader(cmd.Context(), stmt)
				if err != nil {
					return WrapExitError(ExitFailure, "query failed", err)
				}
				return printer{format: opts.Format, w: cmd.OutOrStdout()}.rows(rows)
			})
		},
	}
	addParamFlag(cmd, &params)
	return cmd
}

// NewScalarCommand creates the scalar command.
func NewScalarCommand(opts *RootOptions) *cobra.Command {
	var (
		params []string
		asInt  bool
	)
	cmd := &cobra.Command{
		Use:   "scalar <sql>",
		Short: "Print the first column of the first row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := buildStatement(args[0], params)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app) error {
				var v any
				if asInt {
					v, err = a.exec.ExecuteScalarInt64(cmd.Context(), stmt)
				} else {
					v, err = a.exec.ExecuteScalar(cmd.Context(), stmt)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "scalar failed", err)
				}
				p := printer{format: opts.Format, w: cmd.OutOrStdout()}
				if p.json() {
					return p.encode(map[string]any{"value": v})
				}
				fmt.Fprintln(p.w, formatValue(v))
				return nil
			})
		},
	}
	addParamFlag(cmd, &params)
	cmd.Flags().BoolVar(&asInt, "int", false, "convert the result to an integer (NULL and non-numeric become 0)")
	return cmd
}

// NewHealthCommand creates the health command.
func NewHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the database and any enabled MQTT or InfluxDB connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				if err := a.healthCheck(cmd.Context()); err != nil {
					return WrapExitError(ExitFailure, "health check failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s (%s)\n", a.exec.Name(), a.exec.Path())
				return nil
			})
		},
	}
}
