package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/reservy/mcp"
)

func newServerCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the restaurant tools over JSON-RPC on /mcp",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			reg, store, err := a.buildRegistry(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			handler := mcp.NewServer(reg,
				mcp.WithServerInfo("reservy", Version),
				mcp.WithServerLogger(a.log.With().Str("component", "mcp").Logger()),
			).Handler()
			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", srv.Addr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutting down")
			shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer stop()
			httpErr := srv.Shutdown(shutdownCtx)
			regErr := reg.Shutdown(shutdownCtx)
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return errors.Join(httpErr, regErr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
