package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newObjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "object",
		Aliases: []string{"obj"},
		Short:   "Store and fetch objects by bucket and key",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put <bucket> <key> [data|-]",
			Short: "Store data or stdin under bucket/key",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := payload(cmd, args, 2)
				if err != nil {
					return err
				}
				return a.backend.ObjectStore().Put(cmd.Context(), args[0], args[1], data)
			},
		},
		&cobra.Command{
			Use:   "get <bucket> <key>",
			Short: "Print the object stored under bucket/key",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := a.backend.ObjectStore().Get(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "rm <bucket> <key>",
			Short: "Delete bucket/key",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.backend.ObjectStore().Delete(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "ls <bucket> [prefix]",
			Short: "List the keys of a bucket",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				prefix := ""
				if len(args) == 2 {
					prefix = args[1]
				}

				keys, err := a.backend.ObjectStore().List(cmd.Context(), args[0], prefix)
				if err != nil {
					return err
				}

				return a.print(cmd, keys, func(w io.Writer) {
					for _, key := range keys {
						fmt.Fprintln(w, key)
					}
				})
			},
		},
	)

	return cmd
}
