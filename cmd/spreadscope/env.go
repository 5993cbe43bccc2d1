package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"spreadscope/internal/cache"
	"spreadscope/internal/config"
	"spreadscope/internal/logging"
	"spreadscope/internal/store"
	"spreadscope/internal/xclient"
)

// env is the wiring shared by the commands. Close releases whatever was opened.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
	db     *store.DB
	cache  *cache.Cache
	closer []func() error
}

// loadEnv reads the config. A missing config file is not an error: defaults and
// environment variables apply.
func loadEnv(g *globalFlags) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	if g.dbPath != "" {
		cfg.Storage.DBPath = g.dbPath
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	logging.SetLevel(cfg.Logging.Level)
	return &env{cfg: cfg, logger: logging.Default()}, nil
}

func (e *env) openStore() error {
	db, err := store.Open(e.cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	e.db = db
	e.closer = append(e.closer, db.Close)
	return nil
}

// openCache connects to redis when the cache is enabled. A failed dial is
// logged and the command continues without a cache.
func (e *env) openCache(ctx context.Context) {
	if !e.cfg.Cache.Enabled || e.cfg.Cache.Addr == "" {
		return
	}
	client, err := cache.Dial(ctx, e.cfg.Cache.Addr, e.cfg.Cache.DB)
	if err != nil {
		e.logger.WithError(err).Warn("cache_unavailable")
		return
	}
	e.cache = cache.New(client, e.cfg.Cache.SummaryTTL, e.cfg.Cache.AccountTTL, e.logger)
	e.closer = append(e.closer, client.Close)
}

func (e *env) xClient() *xclient.HTTPClient {
	c := e.cfg.Collector
	if e.cfg.Credentials.BearerToken == "" {
		e.logger.Warn("missing X_BEARER_TOKEN; API calls will fail")
	}
	return xclient.NewHTTPClient(xclient.Options{
		BaseURL:     c.BaseURL,
		BearerToken: e.cfg.Credentials.BearerToken,
		Limiter:     xclient.NewLimiter(c.RPS, c.Burst),
		MaxAttempts: c.MaxAttempts,
		BaseBackoff: c.BaseBackoff,
	})
}

func (e *env) Close() {
	for i := len(e.closer) - 1; i >= 0; i-- {
		_ = e.closer[i]()
	}
}
