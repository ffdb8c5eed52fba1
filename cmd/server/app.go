package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"storefront/internal/accounts"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	mydb "storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/messaging"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/repository/memory"
)

// app holds the wired components and everything that has to be closed.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *gorm.DB
	metrics *metrics.Metrics

	products catalog.Repository
	users    accounts.Repository

	catalog    *catalog.Service
	categories *catalog.CategoryCache
	accounts   *accounts.Service

	memCache *cache.MemoryStore
	closers  []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newApp loads the config and opens storage. needDB false allows the
// in-memory store when server.memory_store is set.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(!cfg.Server.MemoryStore); err != nil {
		return nil, err
	}
	log, logCloser, err := logging.New(logging.Config(cfg.Log), "storefront")
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, metrics: metrics.New(), closers: []io.Closer{logCloser}}

	if cfg.Server.MemoryStore {
		store := memory.New()
		a.products, a.users = store, store
		log.Warn().Msg("using the in-memory store, data is lost on exit")
	} else {
		a.db, err = mydb.Open(mydb.Config(cfg.Database), log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, closerFunc(func() error { return mydb.Close(a.db) }))
		a.products = repository.NewProductRepository(a.db)
		a.users = repository.NewUserRepository(a.db)
	}

	var events catalog.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub := messaging.NewKafkaPublisher(messaging.Config(cfg.Kafka), log)
		a.closers = append(a.closers, pub)
		events = pub
	}

	var store cache.Store
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, client)
		rs := cache.NewRedisStore(client, cfg.Redis.Prefix)
		if err := rs.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, cache reads will fall through")
		}
		store = rs
	} else {
		a.memCache = cache.NewMemoryStore()
		store = a.memCache
	}

	opts := []catalog.Option{
		catalog.WithLogger(log.With().Str("component", "catalog").Logger()),
		catalog.WithEventPublisher(events),
	}
	if len(cfg.Catalog.BannedWords) > 0 {
		opts = append(opts, catalog.WithContentFilter(catalog.NewContentFilter(cfg.Catalog.BannedWords...)))
	}
	a.catalog = catalog.NewService(a.products, opts...)
	a.categories = catalog.NewCategoryCache(a.products, store,
		catalog.WithTTL(cfg.Cache.CategoryTTL),
		catalog.WithCacheEnabled(cfg.Cache.Enabled),
		catalog.WithCacheLogger(log.With().Str("component", "category_cache").Logger()),
		catalog.WithLookupObserver(a.metrics.ObserveCacheLookup),
	)
	a.accounts = accounts.NewService(a.users,
		accounts.WithLogger(log.With().Str("component", "accounts").Logger()),
	)
	return a, nil
}

// health pings postgres; the in-memory store is always healthy.
func (a *app) health(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return mydb.Ping(ctx, a.db)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
