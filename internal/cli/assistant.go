package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/skosovsky/reservy/internal/assistant"
	"github.com/skosovsky/reservy/mcp"
)

// connect returns a tool client: the in-process registry when local is set,
// otherwise the configured server. The cleanup func is never nil.
func (a *app) connect(ctx context.Context, local bool) (assistant.Client, func(), error) {
	if local {
		reg, store, err := a.buildRegistry(ctx)
		if err != nil {
			return nil, nil, err
		}
		return mcp.NewInProcess(reg), func() { _ = store.Close() }, nil
	}
	c := a.remoteClient()
	if _, err := c.Initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", a.cfg.Client.ServerURL, err)
	}
	return c, func() {}, nil
}

func newAssistantCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Interactive restaurant search and booking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			client, cleanup, err := a.connect(ctx, local)
			if err != nil {
				return err
			}
			defer cleanup()

			gen, err := a.generator(ctx)
			if err != nil {
				return err
			}
			if gen == nil {
				a.log.Warn().Msg("llm api key not set; search parameters will be asked for manually")
			}
			s := assistant.NewSession(client, assistant.NewParamExtractor(gen, client),
				cmd.InOrStdin(), cmd.OutOrStdout(),
				assistant.WithLogger(a.log.With().Str("component", "assistant").Logger()),
			)
			return s.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "run the tools in-process instead of calling client.server_url")
	return cmd
}
