// Package servecmder provides the serve command that runs the companion API
// server with its storage, worker pool and event publisher.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/companion/api"
	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/config"
	"github.com/papercomputeco/companion/pkg/dotdir"
	"github.com/papercomputeco/companion/pkg/eventstream"
	"github.com/papercomputeco/companion/pkg/eventstream/fanout"
	"github.com/papercomputeco/companion/pkg/eventstream/kafka"
	"github.com/papercomputeco/companion/pkg/eventstream/nop"
	"github.com/papercomputeco/companion/pkg/eventstream/redis"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/metrics"
	"github.com/papercomputeco/companion/pkg/respond"
	"github.com/papercomputeco/companion/pkg/session"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/storage/inmemory"
	"github.com/papercomputeco/companion/pkg/storage/postgres"
	"github.com/papercomputeco/companion/pkg/storage/sqldriver"
	"github.com/papercomputeco/companion/pkg/storage/sqlite"
	"github.com/papercomputeco/companion/pkg/worker"
)

const shutdownTimeout = 10 * time.Second

type ServeCommander struct {
	flags struct {
		listen       string
		driver       string
		sqlitePath   string
		postgresDSN  string
		eventStream  string
		kafkaBrokers string
		redisURL     string
		workers      uint
	}

	seed      uint64
	debug     bool
	configDir string

	viper  *viper.Viper
	config *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the companion API server.

The server answers chat messages over HTTP, persists conversations through
the configured storage driver and publishes conversation events to Kafka or
Redis when an event stream is configured. Events are also streamed live at
/v1/events (see "companion watch"). An MCP endpoint is mounted at /mcp.

Configuration is resolved from flags, COMPANION_* environment variables,
the .companion/config.toml file and built-in defaults, in that order.
Setting logging.file adds JSON log records to that file; relative paths
resolve inside the .companion/ directory.

Examples:
  companion serve
  companion serve --storage inmemory
  companion serve --sqlite ./companion.db --listen :9000
  companion serve --storage postgres --postgres postgres://localhost/companion
  companion serve --eventstream kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the companion API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir = configDir

			config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{
				config.FlagListen,
				config.FlagStorageDriver,
				config.FlagSQLite,
				config.FlagPostgres,
				config.FlagEventStream,
				config.FlagKafkaBrokers,
				config.FlagRedisURL,
				config.FlagWorkers,
			})

			cmder.viper = v
			cmder.config, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("resolving config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			if cmder.seed != 0 {
				cmder.config.Response.Seed = cmder.seed
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.flags.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagStorageDriver, &cmder.flags.driver)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEventStream, &cmder.flags.eventStream)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagKafkaBrokers, &cmder.flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagRedisURL, &cmder.flags.redisURL)
	config.AddUintFlag(cmd, config.ServeFlags, config.FlagWorkers, &cmder.flags.workers)
	cmd.Flags().Uint64Var(&cmder.seed, "seed", 0, "Fix reply template selection to a seed (0 picks randomly)")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := c.config

	sinks := logger.Sinks{
		Debug: c.debug || cfg.Logging.Debug,
		JSON:  cfg.Logging.JSON,
	}
	if cfg.Logging.File != "" {
		path, err := dotdir.NewManager().Path(c.configDir, cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("resolving log file: %w", err)
		}
		f, err := logger.OpenFile(path)
		if err != nil {
			return err
		}
		defer f.Close()
		sinks.File = f
	}
	c.logger = logger.ForService(sinks)

	idle, err := config.ParseDuration(cfg.Memory.IdleTimeout, session.DefaultIdleTimeout)
	if err != nil {
		return err
	}
	interval, err := config.ParseDuration(cfg.Memory.CleanupInterval, session.DefaultCleanupInterval)
	if err != nil {
		return err
	}

	m := metrics.New(nil)

	storer, err := c.createStorer(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	downstream, err := c.createPublisher(ctx)
	if err != nil {
		return err
	}
	events := fanout.New(downstream, fanout.DefaultBuffer, c.logger)
	defer events.Close()

	pool, err := worker.NewPool(&worker.Config{
		Driver:     storer,
		Publisher:  events,
		NumWorkers: cfg.Worker.NumWorkers,
		QueueSize:  cfg.Worker.QueueSize,
		Logger:     c.logger,
		Metrics:    m,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	store := session.NewCacheStore(session.Config{
		IdleTimeout:     idle,
		CleanupInterval: interval,
		MaxSessions:     cfg.Memory.MaxSessions,
		Memory: memory.Config{
			MaxMessages:      cfg.Memory.MaxMessages,
			MaxContextLength: cfg.Memory.MaxContextLength,
			MaxTopics:        cfg.Memory.MaxTopics,
		},
		Logger:  c.logger,
		Metrics: m,
	})
	defer store.Close()

	sweeper, err := session.NewSweeper(store, interval, idle, c.logger)
	if err != nil {
		return fmt.Errorf("creating session sweeper: %w", err)
	}
	sweeper.Start()

	var selector respond.Selector
	if cfg.Response.Seed != 0 {
		selector = respond.NewRandSelector(cfg.Response.Seed)
	}

	svc := companion.New(companion.Config{
		Store:    store,
		Selector: selector,
		Response: respond.Config{
			TransitionRate: cfg.Response.TransitionRate,
			NameRate:       cfg.Response.NameRate,
		},
		Logger:  c.logger,
		Metrics: m,
	})

	server, err := api.NewServer(api.Config{
		ListenAddr:  cfg.API.Listen,
		RateLimit:   cfg.API.RateLimit,
		CORSOrigins: cfg.API.CORSOrigins,
		Metrics:     m,
		Events:      events,
	}, svc, storer, pool, c.logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	config.WatchConfig(c.viper, cfg, func(_ *config.Config, changed []string, err error) {
		if err != nil {
			c.logger.Warn("config file changed but is invalid", "error", err)
			return
		}
		c.logger.Warn("config file changed, restart to apply", "keys", changed)
	})

	c.logger.Info("starting api server",
		"api_addr", cfg.API.Listen,
		"storage", cfg.Storage.Driver,
		"eventstream", cfg.EventStream.Driver,
		"workers", cfg.Worker.NumWorkers,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	// Live event streams must end before Shutdown can return.
	events.Drain()
	if err := server.Shutdown(); err != nil {
		c.logger.Warn("api server shutdown", "error", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sweeper.Stop(stopCtx)

	return runErr
}

func (c *ServeCommander) createStorer(ctx context.Context) (storage.Driver, error) {
	policy := storage.Policy{
		FactIncrement:  c.config.Facts.FactIncrement,
		MaxConfidence:  c.config.Facts.MaxConfidence,
		ThemeInitial:   c.config.Facts.ThemeInitial,
		ThemeIncrement: c.config.Facts.ThemeIncrement,
	}
	opts := sqldriver.Options{Policy: policy, Logger: c.logger}

	switch c.config.Storage.Driver {
	case "sqlite":
		storer, err := sqlite.NewDriver(ctx, c.config.Storage.SQLitePath, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", c.config.Storage.SQLitePath)
		return storer, nil
	case "postgres":
		storer, err := postgres.NewDriver(ctx, c.config.Storage.PostgresDSN, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return storer, nil
	case "inmemory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(policy), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.config.Storage.Driver)
	}
}

func (c *ServeCommander) createPublisher(ctx context.Context) (eventstream.Publisher, error) {
	es := c.config.EventStream

	switch es.Driver {
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: config.SplitList(es.KafkaBrokers),
			Topic:   es.KafkaTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		c.logger.Info("publishing events to kafka", "topic", es.KafkaTopic)
		return p, nil
	case "redis":
		p, err := redis.NewPublisher(ctx, redis.Config{URL: es.RedisURL, Channel: es.RedisChannel})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		c.logger.Info("publishing events to redis", "channel", p.Channel())
		return p, nil
	case "", "none":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown event stream driver %q", es.Driver)
	}
}
