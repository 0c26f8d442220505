// Package app holds the startup wiring shared by the server and the
// generator command.
package app

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-datagen/internal/config"
	"github.com/ksred/klear-datagen/internal/marketdata"
)

// ConfigureLogging enables pretty printing outside production and debug
// logging when asked for
func ConfigureLogging(cfg config.AppConfig) {
	if !cfg.IsProduction() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// QuoteSource replays the configured snapshot file, or reads live quotes
// when there is none
func QuoteSource(cfg config.QuotesConfig) (marketdata.QuoteSource, error) {
	if cfg.SnapshotFile == "" {
		return marketdata.NewYahooSource(cfg.BaseURL, cfg.Timeout), nil
	}
	set, err := marketdata.LoadSnapshots(cfg.SnapshotFile)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", cfg.SnapshotFile).
		Strs("symbols", set.Symbols()).
		Msg("replaying market snapshots from file")
	return marketdata.NewStaticSource(set), nil
}

// NewCache builds the snapshot cache. When Redis is configured and
// reachable it backs the in-process tier; the returned func closes it.
func NewCache(ctx context.Context, cfg config.Config) (*marketdata.Cache, func() error, error) {
	source, err := QuoteSource(cfg.Quotes)
	if err != nil {
		return nil, nil, err
	}

	opts := marketdata.Options{
		TTL:    cfg.Quotes.CacheTTL,
		Pacing: cfg.Quotes.Pacing,
	}
	closeFn := func() error { return nil }

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, caching snapshots in memory only")
			_ = client.Close()
		} else {
			opts.Store = marketdata.NewTieredStore(marketdata.NewMemoryStore(), marketdata.NewRedisStore(client, opts.TTL))
			closeFn = client.Close
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis snapshot tier enabled")
		}
	}

	return marketdata.NewCache(source, opts), closeFn, nil
}
