package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/waterwise/internal/config"
	"github.com/i474232898/waterwise/internal/garden"
	"github.com/i474232898/waterwise/internal/logging"
	"github.com/i474232898/waterwise/internal/store"
	"github.com/i474232898/waterwise/internal/weather"
	"github.com/i474232898/waterwise/internal/weather/providers"
)

// deps holds the dependencies shared by every subcommand.
type deps struct {
	cfg     *config.AppConfig
	log     *zap.Logger
	store   garden.Store
	weather *weather.Service
	garden  *garden.Service
	closers []func() error
}

func rootCommand() *cobra.Command {
	rt := &deps{}

	root := &cobra.Command{
		Use:           "waterwise",
		Short:         "Rain-aware plant watering planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}

	root.AddCommand(
		serveCommand(rt),
		forecastCommand(rt),
		seedCatalogCommand(rt),
	)
	return root
}

func (rt *deps) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	rt.cfg = cfg

	rt.log, err = logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	rt.store, err = rt.openStore(ctx)
	if err != nil {
		return err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider, err := newProvider(cfg, httpClient)
	if err != nil {
		return err
	}

	rt.weather = weather.NewService(provider, cfg.Location, cfg.ForecastCacheTTL, rt.log)
	rt.garden = garden.NewService(rt.store, rt.weather,
		garden.WithLocation(cfg.Location),
		garden.WithLogger(rt.log))

	rt.log.Debug("runtime ready",
		zap.String("provider", provider.Name()),
		zap.String("store", cfg.StoreDriver),
		zap.String("timezone", cfg.Location.String()))
	return nil
}

func (rt *deps) openStore(ctx context.Context) (garden.Store, error) {
	switch rt.cfg.StoreDriver {
	case "sqlite":
		s, err := store.NewSQLiteStore(rt.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		rt.closers = append(rt.closers, s.Close)
		return s, nil
	case "firebase":
		s, err := store.NewFirebaseStore(ctx, rt.cfg.FirebaseDatabaseURL, rt.cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("open firebase store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func newProvider(cfg *config.AppConfig, client *http.Client) (weather.ForecastProvider, error) {
	var limiter *rate.Limiter
	if cfg.WeatherRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WeatherRateLimit), cfg.WeatherBurst)
	}

	switch cfg.WeatherProvider {
	case "openweather":
		return providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey,
			providers.WithOpenWeatherBaseURL(cfg.OpenWeatherURL),
			providers.WithOpenWeatherUnits(cfg.WeatherUnits),
			providers.WithOpenWeatherLimiter(limiter),
		), nil
	case "weatherapi":
		return providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherUnits, limiter), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.WeatherProvider)
	}
}

func (rt *deps) close() {
	for _, c := range rt.closers {
		if err := c(); err != nil && rt.log != nil {
			rt.log.Warn("close failed", zap.Error(err))
		}
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
}
