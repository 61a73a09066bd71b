package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/soaringjerry/pulse/internal/api"
	"github.com/soaringjerry/pulse/internal/cache"
	"github.com/soaringjerry/pulse/internal/config"
	dbstore "github.com/soaringjerry/pulse/internal/db"
	"github.com/soaringjerry/pulse/internal/importer"
	"github.com/soaringjerry/pulse/internal/logger"
	"github.com/soaringjerry/pulse/internal/metrics"
	"github.com/soaringjerry/pulse/internal/services"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    api.Store
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	closers  []func() error
}

// newApp loads configuration and connects the configured store and cache.
// Log output goes to logOut so CLI subcommands keep stdout for reports.
func newApp(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg: cfg,
		log: logger.New(logger.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			Environment: cfg.Environment,
			Output:      logOut,
		}),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if a.metrics, err = metrics.NewRecorder(a.registry); err != nil {
		return nil, err
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Cache.Enabled {
		if err := a.openCache(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	if cfg.Store.Fixture != "" {
		if _, err := a.importFile(ctx, cfg.Store.Fixture); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed fixture: %w", err)
		}
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	sc := a.cfg.Store
	log := a.log.WithField("backend", sc.Backend)
	switch sc.Backend {
	case config.BackendMemory:
		a.store = api.NewMemoryStore()
	case config.BackendSQLite:
		sqlDB, err := a.openSQLite(ctx)
		if err != nil {
			return err
		}
		store, err := dbstore.NewStore(sqlDB)
		if err != nil {
			return err
		}
		a.registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, "pulse"))
		a.store = store
	case config.BackendMongo:
		var client *mongo.Client
		err := a.retry(ctx, "mongo", func(ctx context.Context) error {
			var err error
			client, err = dbstore.ConnectMongo(ctx, sc.MongoURI, a.cfg.Startup.ConnectTimeout)
			return err
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		a.store = dbstore.NewMongoStore(client.Database(sc.MongoDatabase))
	default:
		return fmt.Errorf("%w: got %q", config.ErrUnknownBackend, sc.Backend)
	}
	log.Info("store ready")
	return nil
}

// openSQLite opens the database and brings its schema up to date.
func (a *app) openSQLite(ctx context.Context) (*sql.DB, error) {
	sqlDB, err := dbstore.Open(a.cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)
	applied, err := dbstore.RunMigrations(ctx, sqlDB, a.cfg.Store.MigrationsDir)
	if err != nil {
		return nil, err
	}
	if len(applied) > 0 {
		a.log.WithField("migrations", applied).Info("sqlite schema migrated")
	}
	return sqlDB, nil
}

func (a *app) openCache(ctx context.Context) error {
	cc := a.cfg.Cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cc.Addr,
		Password: cc.Password,
		DB:       cc.DB,
	})
	a.closers = append(a.closers, rdb.Close)
	err := a.retry(ctx, "redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		return err
	}
	a.store = cache.New(a.store, rdb,
		cache.WithTTL(cc.TTL),
		cache.WithPrefix(cc.Prefix),
		cache.WithLogger(a.log.Entry),
	)
	a.log.WithField("addr", cc.Addr).Info("redis cache enabled")
	return nil
}

// retry runs connect with exponential backoff until it succeeds, ctx ends or
// the startup budget is spent.
func (a *app) retry(ctx context.Context, what string, connect func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = a.cfg.Startup.MaxElapsed
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, a.cfg.Startup.ConnectTimeout)
		defer cancel()
		return connect(attemptCtx)
	}
	notify := func(err error, next time.Duration) {
		a.log.WithError(err).WithField("retry_in", next.String()).Warnf("%s unavailable", what)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("connect %s: %w", what, err)
	}
	return nil
}

func (a *app) importFile(ctx context.Context, path string) (importer.Summary, error) {
	fx, err := importer.LoadFile(path)
	if err != nil {
		return importer.Summary{}, err
	}
	sum, err := importer.New(a.store, importer.WithLogger(a.log.Entry)).Import(ctx, fx)
	if err != nil {
		return sum, err
	}
	a.log.WithField("file", path).WithField("surveys", sum.Surveys).WithField("responses", sum.Responses).Info("fixture imported")
	return sum, nil
}

func (a *app) analytics() *services.AnalyticsService {
	return services.NewAnalyticsService(a.store,
		services.WithPolicy(a.cfg.Analytics),
		services.WithLogger(a.log.Entry),
		services.WithMetrics(a.metrics),
	)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, redis.ErrClosed) {
			a.log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}

func buildInfo() api.Build {
	b := api.Build{Commit: commit, BuildTime: buildTime}
	if b.Commit == "" {
		b.Commit = os.Getenv("PULSE_COMMIT")
	}
	if b.BuildTime == "" {
		b.BuildTime = os.Getenv("PULSE_BUILD_TIME")
	}
	return b
}
