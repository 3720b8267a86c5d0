package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/log"
)

// Commands carrying this annotation run without a backend.
const annotationNoBackend = "extio/no-backend"

// app is the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	logger  *log.Logger
	backend extio.Backend

	configFile string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	a := &app{
		v: viper.New(),
	}

	root := &cobra.Command{
		Use:   "extio",
		Short: "Run extio operations against a configured backend",
		Long: `extio composes backends from addresses and runs single operations
against them. Every group not routed explicitly is served by the primary
backend when it declares the group.

Configuration is read from flags, EXTIO_* environment variables and an
optional config file, in that order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	flags.BoolVar(&a.jsonOutput, "json", false, "output as JSON")
	flags.String(cfgKeyPrimary, defaultPrimary, "address of the primary backend")
	flags.StringToString(cfgKeyRoutes, nil, "route a capability group to an address, e.g. Database=sqlite://extio.db")
	flags.String(cfgKeyLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.String(cfgKeyLogFile, "", "write logs to a rotated file instead of stderr")

	root.AddCommand(
		newVersionCmd(),
		newOpsCmd(a),
		newCapsCmd(a),
		newFileCmd(a),
		newObjectCmd(a),
		newDatabaseCmd(a),
		newConfigCmd(a),
		newRequestCmd(a),
		newRunCmd(a),
		newQueueCmd(a),
		newIPCCmd(a),
		newCryptoCmd(a),
		newNowCmd(a),
		newTelemetryCmd(a),
	)

	return root
}

// setup loads the configuration, then composes and opens the backend.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.loadConfig(cmd); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := log.Parse(a.v.GetString(cfgKeyLogLevel))
	if err != nil {
		return err
	}
	if logFile := a.v.GetString(cfgKeyLogFile); logFile != "" {
		a.logger = log.NewLogger("extio", level, logFile, true)
	} else {
		// Stdout carries command output.
		a.logger = log.NewWriterLogger("extio", level, cmd.ErrOrStderr())
	}

	if cmd.Annotations[annotationNoBackend] != "" {
		return nil
	}

	b, err := a.compose()
	if err != nil {
		return err
	}
	if err := b.Open(cmd.Context()); err != nil {
		return fmt.Errorf("open backend: %w", err)
	}

	a.backend = b
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	if a.backend == nil {
		return nil
	}

	err := a.backend.Close(cmd.Context())
	a.backend = nil
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoBackend: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "extio "+extio.Version)
		},
	}
}
