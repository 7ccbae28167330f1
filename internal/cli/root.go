// Package cli wires configuration, logging and the tool stack into the reservy commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/reservy/internal/config"
	"github.com/skosovsky/reservy/internal/logging"
)

// Set at build time with -ldflags "-X github.com/skosovsky/reservy/internal/cli.Version=...".
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	log    zerolog.Logger
	tracer trace.Tracer
	tp     *sdktrace.TracerProvider
}

const tracerName = "github.com/skosovsky/reservy"

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.tracer = otel.Tracer(tracerName)
	if cfg.Log.Traces {
		a.tp = logging.NewTracerProvider(log.With().Str("component", "trace").Logger())
		a.tracer = a.tp.Tracer(tracerName)
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.tp == nil {
		return nil
	}
	return a.tp.Shutdown(ctx)
}

// NewRootCmd builds the reservy command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "reservy",
		Short:         "Restaurant search and reservation tool server with an interactive assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (default ./reservy.yaml if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServerCmd(a))
	root.AddCommand(newAssistantCmd(a))
	root.AddCommand(newToolsCmd(a))
	root.AddCommand(newModelsCmd(a))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reservy %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}
