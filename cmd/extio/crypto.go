package main

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCryptoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crypto",
		Short: "Sign payloads and read secrets",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "sign <key-id> [payload|-]",
			Short: "Print the base64 signature of a payload",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := payload(cmd, args, 1)
				if err != nil {
					return err
				}

				signature, err := a.backend.Crypto().Sign(cmd.Context(), args[0], data)
				if err != nil {
					return err
				}

				encoded := base64.StdEncoding.EncodeToString(signature)
				return a.print(cmd, map[string]string{"signature": encoded}, func(w io.Writer) {
					fmt.Fprintln(w, encoded)
				})
			},
		},
		&cobra.Command{
			Use:   "verify <key-id> <signature> [payload|-]",
			Short: "Check a base64 signature against a payload",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				signature, err := base64.StdEncoding.DecodeString(args[1])
				if err != nil {
					return fmt.Errorf("signature is not valid base64: %w", err)
				}
				data, err := payload(cmd, args, 2)
				if err != nil {
					return err
				}

				ok, err := a.backend.Crypto().Verify(cmd.Context(), args[0], data, signature)
				if err != nil {
					return err
				}

				if err := a.print(cmd, map[string]bool{"valid": ok}, func(w io.Writer) {
					fmt.Fprintf(w, "valid: %t\n", ok)
				}); err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("signature does not match")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "secret <name>",
			Short: "Print a secret",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				secret, err := a.backend.Crypto().GetSecret(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(secret)
				return err
			},
		},
	)

	return cmd
}
