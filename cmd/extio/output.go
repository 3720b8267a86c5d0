package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// print writes value as indented JSON with --json, otherwise through text.
func (a *app) print(cmd *cobra.Command, value any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.jsonOutput {
		output, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	text(w)
	return nil
}

// payload returns the data argument at index, or stdin when it is missing
// or "-".
func payload(cmd *cobra.Command, args []string, index int) ([]byte, error) {
	if index < len(args) && args[index] != "-" {
		return []byte(args[index]), nil
	}

	in := cmd.InOrStdin()
	if in == os.Stdin {
		if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return nil, fmt.Errorf("no data argument given and stdin is a terminal")
		}
	}
	return io.ReadAll(in)
}
