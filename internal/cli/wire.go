package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/skosovsky/reservy"
	"github.com/skosovsky/reservy/internal/calendar"
	"github.com/skosovsky/reservy/internal/llm"
	"github.com/skosovsky/reservy/internal/places"
	"github.com/skosovsky/reservy/internal/reservation"
	"github.com/skosovsky/reservy/internal/slots"
	"github.com/skosovsky/reservy/internal/tools"
	"github.com/skosovsky/reservy/mcp"
)

func (a *app) openStore(ctx context.Context) (reservation.Store, error) {
	switch a.cfg.Store.Driver {
	case "sqlite":
		s, err := reservation.OpenSQLite(ctx, a.cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("dsn", a.cfg.Store.DSN).Msg("using sqlite reservation store")
		return s, nil
	default:
		return reservation.NewMemoryStore(), nil
	}
}

// buildRegistry assembles the five tools over a fresh store. The returned
// store must be closed by the caller.
func (a *app) buildRegistry(ctx context.Context) (*reservy.Registry, reservation.Store, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []tools.Option{
		tools.WithSlots(slots.NewSeeded(a.cfg.Slots.Seed)),
		tools.WithInviteWriter(calendar.NewWriter(afero.NewOsFs(), a.cfg.Calendar.Dir)),
		tools.WithDetails(a.cfg.Places.DetailsLimit, a.cfg.Places.DetailsWorkers),
		tools.WithSearchTimeout(a.cfg.Places.SearchTimeout),
		tools.WithLogger(a.log.With().Str("component", "tools").Logger()),
	}
	if a.cfg.Places.APIKey != "" {
		pc, err := places.NewClient(a.cfg.Places.APIKey,
			places.WithBaseURL(a.cfg.Places.BaseURL),
			places.WithTimeout(a.cfg.Places.Timeout),
			places.WithLogger(a.log.With().Str("component", "places").Logger()),
		)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		opts = append(opts, tools.WithPlaces(pc))
	} else {
		a.log.Warn().Msg("places api key not set; search_restaurants will report a configuration error")
	}
	svc := tools.NewService(store, opts...)

	reg := reservy.NewRegistry(
		reservy.WithDefaultTimeout(a.cfg.Server.ToolTimeout),
		reservy.WithMaxConcurrency(a.cfg.Server.MaxConcurrency),
	)
	reg.Use(
		reservy.WithTracing(a.tracer),
		reservy.WithLogging(a.log.With().Str("component", "registry").Logger()),
		reservy.WithRecovery(),
	)
	if err := svc.Register(reg); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("register tools: %w", err)
	}
	return reg, store, nil
}

// generator returns nil when no LLM key is configured.
func (a *app) generator(ctx context.Context) (llm.Generator, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, nil
	}
	return a.gemini(ctx)
}

func (a *app) gemini(ctx context.Context) (*llm.Gemini, error) {
	return llm.NewGemini(ctx, a.cfg.LLM.APIKey,
		llm.WithModel(a.cfg.LLM.Model),
		llm.WithBaseURL(a.cfg.LLM.BaseURL),
		llm.WithTimeout(a.cfg.LLM.Timeout),
		llm.WithLogger(a.log.With().Str("component", "llm").Logger()),
	)
}

func (a *app) remoteClient() *mcp.Client {
	return mcp.NewClient(a.cfg.Client.ServerURL,
		mcp.WithClientTimeout(a.cfg.Client.Timeout),
		mcp.WithClientInfo("reservy-assistant", Version),
		mcp.WithClientLogger(a.log.With().Str("component", "mcp-client").Logger()),
	)
}
