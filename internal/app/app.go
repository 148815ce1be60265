package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/handlers"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/services/calendar"
	"github.com/ternarybob/kabuka/internal/services/llm"
	"github.com/ternarybob/kabuka/internal/services/lookup"
	"github.com/ternarybob/kabuka/internal/services/market"
	"github.com/ternarybob/kabuka/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	EventCache interfaces.EventCacheStorage

	// External sources
	Generator *llm.ProviderFactory
	Lookup    interfaces.EventLookup
	Prices    interfaces.PriceHistoryProvider

	// Retrieval policy
	Events interfaces.EventService

	// HTTP handlers
	EventsHandler *handlers.EventsHandler
	PricesHandler *handlers.PricesHandler
	SystemHandler *handlers.SystemHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.initServices()
	app.initHandlers()

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("default_mode", cfg.Events.DefaultMode).
		Bool("lookup_configured", app.Generator.Configured()).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the event cache selected by configuration
func (a *App) initStorage() error {
	cache, err := storage.NewEventCache(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.EventCache = cache
	return nil
}

// initServices wires the lookup, calendar and market services
func (a *App) initServices() {
	a.Generator = llm.NewProviderFactory(a.Config, a.Logger)
	if !a.Generator.Configured() {
		a.Logger.Warn().Msg("No LLM API key resolved; refreshes will return external_unavailable")
	}

	a.Lookup = lookup.NewService(a.Generator, a.Config, a.Logger)
	a.Events = calendar.NewService(a.EventCache, a.Lookup, a.Config.Events, a.Logger)
	a.Prices = market.NewClientFromConfig(a.Config.Market, a.Logger)

	a.Logger.Debug().Msg("Services initialized")
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.EventsHandler = handlers.NewEventsHandler(a.Events, a.Logger)
	a.PricesHandler = handlers.NewPricesHandler(a.Prices, a.Logger)
	a.SystemHandler = handlers.NewSystemHandler(a.Config, a.Generator.Configured(), a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Generator != nil {
		if err := a.Generator.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.EventCache != nil {
		if err := a.EventCache.Close(); err != nil {
			return fmt.Errorf("failed to close event cache: %w", err)
		}
		a.Logger.Debug().Msg("Event cache closed")
	}

	return nil
}
