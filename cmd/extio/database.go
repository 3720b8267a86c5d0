package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDatabaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Run SQL statements",
		Long: `Run SQL statements against the backend serving Database. Parameters
are passed as strings and bound to $1, $2, ... in order.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "query <statement> [params...]",
			Short: "Run a statement and print its rows",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				result, err := a.backend.Database().Query(cmd.Context(), args[0], params(args[1:])...)
				if err != nil {
					return err
				}

				return a.print(cmd, result, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
					for _, row := range result.Rows {
						cells := make([]string, len(row))
						for i, value := range row {
							cells[i] = formatValue(value)
						}
						fmt.Fprintln(tw, strings.Join(cells, "\t"))
					}
					tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "exec <statement> [params...]",
			Short: "Run a statement and print the affected row count",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				affected, err := a.backend.Database().Execute(cmd.Context(), args[0], params(args[1:])...)
				if err != nil {
					return err
				}

				return a.print(cmd, map[string]int64{"affected": affected}, func(w io.Writer) {
					fmt.Fprintf(w, "%d rows affected\n", affected)
				})
			},
		},
	)

	return cmd
}

func params(args []string) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = arg
	}
	return out
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("%x", v)
	default:
		return fmt.Sprint(v)
	}
}
