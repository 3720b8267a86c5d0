package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Read, write and list files",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "cat <path>",
			Short: "Print the contents of a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := a.backend.File().ReadAll(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "write <path> [data|-]",
			Short: "Replace a file with data or stdin",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := payload(cmd, args, 1)
				if err != nil {
					return err
				}
				return a.backend.File().WriteAll(cmd.Context(), args[0], data)
			},
		},
		&cobra.Command{
			Use:   "ls [path]",
			Short: "List a directory",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := "/"
				if len(args) == 1 {
					dir = args[0]
				}

				entries, err := a.backend.File().List(cmd.Context(), dir)
				if err != nil {
					return err
				}

				return a.print(cmd, entries, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					for _, entry := range entries {
						name := entry.Name
						if entry.IsDir {
							name += "/"
						}
						fmt.Fprintf(tw, "%d\t%s\t%s\n", entry.Size, entry.ModTime.Format("2006-01-02 15:04"), name)
					}
					tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "rm <path>",
			Short: "Delete a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.backend.File().Delete(cmd.Context(), args[0])
			},
		},
	)

	return cmd
}
