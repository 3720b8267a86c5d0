package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read settings served by the backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := a.backend.Config().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return a.print(cmd, map[string]string{args[0]: value}, func(w io.Writer) {
				fmt.Fprintln(w, value)
			})
		},
	})

	return cmd
}
