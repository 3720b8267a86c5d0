package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/log"
)

func newNowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Print the current time of the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := a.backend.Schedule().Now(cmd.Context())
			if err != nil {
				return err
			}

			return a.print(cmd, map[string]time.Time{"now": now}, func(w io.Writer) {
				fmt.Fprintln(w, now.Format(time.RFC3339Nano))
			})
		},
	}
}

// extioLevel maps a level name onto the contract levels; fatal is not one.
func extioLevel(name string) (extio.Level, error) {
	level, err := log.Parse(name)
	if err != nil {
		return 0, err
	}

	switch level {
	case log.Debug:
		return extio.LevelDebug, nil
	case log.Info:
		return extio.LevelInfo, nil
	case log.Warn:
		return extio.LevelWarn, nil
	case log.Error:
		return extio.LevelError, nil
	}
	return 0, fmt.Errorf("level '%s' cannot be used for entries", name)
}

func splitPairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("'%s' must be formatted as key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

func newTelemetryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Emit log entries and metrics",
	}

	var fields []string
	logCmd := &cobra.Command{
		Use:   "log <level> <message>",
		Short: "Write a log entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := extioLevel(args[0])
			if err != nil {
				return err
			}
			pairs, err := splitPairs(fields)
			if err != nil {
				return err
			}

			entryFields := make(extio.Fields, len(pairs))
			for key, value := range pairs {
				entryFields[key] = value
			}
			return a.backend.Telemetry().Log(cmd.Context(), level, args[1], entryFields)
		},
	}
	logCmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "entry field key=value, repeatable")

	var tags []string
	metricCmd := &cobra.Command{
		Use:   "metric <name> <value>",
		Short: "Record a metric value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("metric value '%s' is not a number", args[1])
			}
			pairs, err := splitPairs(tags)
			if err != nil {
				return err
			}
			return a.backend.Telemetry().RecordMetric(cmd.Context(), args[0], value, extio.Tags(pairs))
		},
	}
	metricCmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "metric tag key=value, repeatable")

	cmd.AddCommand(logCmd, metricCmd)
	return cmd
}
