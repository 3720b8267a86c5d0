package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwantia/extio"
)

func newOpsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "ops",
		Short:       "List every operation of the contract",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoBackend: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := extio.Operations()
			return a.print(cmd, ops, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, op := range ops {
					note := ""
					if op.Deprecated != "" {
						note = "deprecated, use " + op.Deprecated
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", op.Group, op.Name, note)
				}
				tw.Flush()
			})
		},
	}
}

type groupRoute struct {
	Group   extio.CapabilityGroup `json:"group"`
	Backend string                `json:"backend"`
}

type capsOutput struct {
	Name     string         `json:"name"`
	Groups   []groupRoute   `json:"groups"`
	Settings extio.Settings `json:"settings"`
}

func newCapsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "caps",
		Short: "Show the capability groups of the composed backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps := a.backend.GetCapabilities()
			out := capsOutput{
				Name:     a.backend.Name(),
				Settings: caps.Settings,
			}

			composite := unwrapComposite(a.backend)
			for _, group := range caps.Groups {
				route := groupRoute{Group: group}
				if composite != nil {
					if b, ok := composite.Provider(group); ok {
						route.Backend = b.Name()
					}
				}
				out.Groups = append(out.Groups, route)
			}

			return a.print(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "backend: %s\n", out.Name)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, route := range out.Groups {
					fmt.Fprintf(tw, "%s\t%s\n", route.Group, route.Backend)
				}
				tw.Flush()
				fmt.Fprintf(w, "read-only: %t\n", out.Settings.ReadOnly)
			})
		},
	}
}

func unwrapComposite(b extio.Backend) *extio.Composite {
	for {
		switch v := b.(type) {
		case *extio.Composite:
			return v
		case interface{ Unwrap() extio.Backend }:
			b = v.Unwrap()
		default:
			return nil
		}
	}
}
