package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwantia/extio"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		env []string
		dir string
	)

	cmd := &cobra.Command{
		Use:   "run <name> [args...]",
		Short: "Spawn a process and wait for its exit code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := extio.Command{
				Name: args[0],
				Args: args[1:],
				Dir:  dir,
			}
			if len(env) > 0 {
				command.Env = make(map[string]string, len(env))
				for _, pair := range env {
					key, value, ok := strings.Cut(pair, "=")
					if !ok || key == "" {
						return fmt.Errorf("environment entry '%s' must be formatted as KEY=VALUE", pair)
					}
					command.Env[key] = value
				}
			}

			ctx := cmd.Context()
			process := a.backend.Process()

			h, err := process.Spawn(ctx, command)
			if err != nil {
				return err
			}

			code, err := process.Wait(ctx, h)
			if err != nil {
				if kerr := process.Kill(ctx, h); kerr != nil {
					a.logger.Warn("failed to kill process '%s': %v", args[0], kerr)
				}
				return err
			}

			if err := a.print(cmd, map[string]int{"exit_code": code}, func(w io.Writer) {
				fmt.Fprintf(w, "exit code %d\n", code)
			}); err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("process '%s' exited with code %d", args[0], code)
			}
			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "environment entry KEY=VALUE, repeatable")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory relative to the backend root")

	return cmd
}
