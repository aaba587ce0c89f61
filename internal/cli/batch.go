package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlitelib/internal/executor"
	"github.com/nerrad567/sqlitelib/internal/statement"
)

// NewBatchCommand creates the batch command.
func NewBatchCommand(opts *RootOptions) *cobra.Command {
	var (
		inline bool
		stmts  []string
	)
	cmd := &cobra.Command{
		Use:   "batch [file|-]",
		Short: "Run statements in one transaction, rolling back on failure",
		Long: `Run every statement in one transaction.

Statements come from -e flags, or from a file (stdin for "-") split on
semicolons outside quotes. On failure the transaction is rolled back and a
crash report is written; a locked database skips the batch instead.

With --inline, double quotes are replaced by single quotes before execution.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds := stmts
			if len(args) == 1 {
				text, err := readSource(args[0], cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "reading statements", err)
				}
				cmds = append(cmds, splitStatements(text)...)
			}
			if len(cmds) == 0 {
				return WrapExitError(ExitCommandError, "no statements", nil)
			}

			return withApp(opts, func(a *app) error {
				var res executor.BatchResult
				if inline {
					res = a.exec.ExecuteBatchText(cmd.Context(), cmds...)
				} else {
					batch := make([]statement.Statement, len(cmds))
					for i, c := range cmds {
						batch[i] = statement.Plain(c)
					}
					res = a.exec.ExecuteBatch(cmd.Context(), batch)
				}

				if err := (printer{format: opts.Format, w: cmd.OutOrStdout()}).batch(res); err != nil {
					return err
				}
				switch res.Outcome {
				case executor.Committed:
					return nil
				case executor.LockContention:
					return WrapExitError(ExitLockContention, "batch skipped", res.Err)
				default:
					return WrapExitError(ExitFailure, "batch rolled back", res.Err)
				}
			})
		},
	}
	cmd.Flags().StringArrayVarP(&stmts, "exec", "e", nil, "statement to run (repeatable, runs before file statements)")
	cmd.Flags().BoolVar(&inline, "inline", false, "replace double quotes with single quotes in every statement")
	return cmd
}

func readSource(name string, stdin io.Reader) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(b), nil
}

// splitStatements splits SQL text on semicolons that are not inside a
// quoted string, a quoted identifier or a comment. Comments are dropped,
// as are blank statements and the terminating semicolon.
func splitStatements(text string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case quote != 0:
			// A doubled quote closes and reopens, which nets out correctly.
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			// Line comment: skip to the newline, which is kept.
			for i+1 < len(rs) && rs[i+1] != '\n' {
				i++
			}
			continue
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			// Block comment; an unterminated one runs to the end.
			i += 2
			for i < len(rs) && (rs[i] != '*' || i+1 >= len(rs) || rs[i+1] != '/') {
				i++
			}
			i++
			cur.WriteRune(' ')
			continue
		case r == ';':
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}
