package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"

	"github.com/parkcheep/parkcheep-bot/internal/bot"
	"github.com/parkcheep/parkcheep-bot/internal/carpark"
	"github.com/parkcheep/parkcheep-bot/internal/conversation"
	"github.com/parkcheep/parkcheep-bot/internal/database"
	apperrors "github.com/parkcheep/parkcheep-bot/internal/errors"
	"github.com/parkcheep/parkcheep-bot/internal/geo"
	"github.com/parkcheep/parkcheep-bot/internal/health"
	"github.com/parkcheep/parkcheep-bot/internal/idempotency"
	"github.com/parkcheep/parkcheep-bot/internal/jobs"
	"github.com/parkcheep/parkcheep-bot/internal/jobs/handlers"
	"github.com/parkcheep/parkcheep-bot/internal/ratelimit"
	"github.com/parkcheep/parkcheep-bot/pkg/config"
	"github.com/parkcheep/parkcheep-bot/pkg/graceful"
	"github.com/parkcheep/parkcheep-bot/pkg/logger"
	"github.com/parkcheep/parkcheep-bot/pkg/metrics"
	pkgredis "github.com/parkcheep/parkcheep-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	log.Info("starting parkcheep bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("store", cfg.Store.Backend),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	config.Watch(v, log, func(updated *config.Config) {
		// Collaborators are wired at startup; a restart is needed to apply
		// transport or storage changes.
		log.Info("configuration reloaded", slog.String("env", updated.AppEnv))
	})

	tz, err := time.LoadLocation(cfg.Parking.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", slog.String("timezone", cfg.Parking.Timezone), slog.Any("error", err))
		tz = time.UTC
	}

	var snapshot *carpark.SQLiteStore
	if cfg.Parking.SQLitePath != "" {
		snapshot, err = carpark.NewSQLiteStore(cfg.Parking.SQLitePath, log)
		if err != nil {
			log.Error("failed to open carpark snapshot store", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := snapshot.Close(); cerr != nil {
				log.Warn("error closing carpark snapshot store", slog.Any("error", cerr))
			}
		}()
	}

	var usedSnapshot bool
	carparks, err := carpark.LoadFile(cfg.Parking.DatasetPath)
	if err != nil {
		log.Warn("failed to load carpark dataset file", slog.String("path", cfg.Parking.DatasetPath), slog.Any("error", err))
		if snapshot == nil {
			os.Exit(1)
		}

		carparks, err = snapshot.Load(ctx)
		if err != nil {
			log.Error("failed to load carpark snapshot", slog.Any("error", err))
			os.Exit(1)
		}
		usedSnapshot = true
		log.Info("loaded carparks from snapshot", slog.Int("count", len(carparks)))
	} else if snapshot != nil {
		if serr := snapshot.Save(ctx, carparks); serr != nil {
			log.Warn("failed to refresh carpark snapshot", slog.Any("error", serr))
		}
	}

	directory := carpark.NewDirectory(carparks)
	log.Info("carpark directory ready", slog.Int("count", directory.Size()))

	// Redis serves conversation records, locks, rate limiting, update dedup
	// and the asynq queues. Only connect when something needs it so the
	// memory backend can run without any external services.
	needsRedis := cfg.Store.Backend == "redis" || cfg.Jobs.Enabled
	var redisClient *pkgredis.Client
	if needsRedis && cfg.Redis.Addr != "" {
		redisClient, err = pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				log.Warn("error closing redis client", slog.Any("error", cerr))
			}
		}()
	}

	var db *sql.DB
	if cfg.Store.Backend == "postgres" {
		db, err = sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				log.Warn("error closing database", slog.Any("error", cerr))
			}
		}()

		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", slog.Any("error", err))
			os.Exit(1)
		}

		migrator := database.NewMigrator(db, log)
		if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
			log.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var (
		store  conversation.Store
		locker conversation.Locker
	)
	switch cfg.Store.Backend {
	case "redis":
		if redisClient == nil {
			log.Error("store backend is redis but redis.addr is not configured")
			os.Exit(1)
		}
		store = conversation.NewRedisStore(redisClient.Client, cfg.Store.TTL, log)
		locker = conversation.NewRedisLocker(redisClient.Client, log)
	case "postgres":
		store = conversation.NewPostgresStore(db, log)
		if redisClient != nil {
			locker = conversation.NewRedisLocker(redisClient.Client, log)
		} else {
			locker = conversation.NewMemoryLocker()
		}
	default:
		store = conversation.NewMemoryStore()
		locker = conversation.NewMemoryLocker()
	}

	env := &conversation.Env{
		Geocoder:       geo.NewGoogleGeocoder(cfg.Google.MapsAPIKey, log),
		Carparks:       directory,
		Maps:           geo.NewStaticMapBuilder(cfg.Google.MapsAPIKey),
		FeedbackChatID: cfg.Bot.FeedbackChatID,
		MaxDistanceKm:  cfg.Parking.MaxDistanceKm,
		TZ:             tz,
		Log:            log,
	}
	if db != nil {
		env.Feedback = conversation.NewPostgresFeedbackSink(db, log)
	}

	conversation.RegisterTransitionRecorder(func(from, to conversation.Kind) {
		metrics.RecordStateTransition(string(from), string(to))
	})

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	dispatcher := conversation.NewDispatcher(env, store, locker, errHandler, log)

	var limiter ratelimit.Limiter
	var dedup idempotency.Manager
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, log)
		dedup = idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}

	b, err := bot.New(*cfg, log, dispatcher, limiter, dedup)
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		os.Exit(1)
	}
	env.Messenger = bot.NewTelebotMessenger(b.Telebot())

	if cfg.Jobs.Enabled {
		if redisClient == nil {
			log.Error("jobs are enabled but redis.addr is not configured")
			os.Exit(1)
		}

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		worker := jobs.NewWorker(redisOpt, log)
		worker.RegisterHandler(jobs.TaskTypeCarparkRefresh, handlers.NewCarparkRefreshHandler(directory, snapshot, log))
		worker.RegisterHandler(jobs.TaskTypeStateCleanup, handlers.NewStateCleanupHandler(store, log))
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("job worker stopped", slog.Any("error", err))
			}
		}()
		defer worker.Shutdown()

		scheduler := jobs.NewScheduler(redisOpt, *cfg, log)
		if err := scheduler.RegisterTasks(); err != nil {
			log.Error("failed to register scheduled tasks", slog.Any("error", err))
			os.Exit(1)
		}
		scheduler.Run()
		defer scheduler.Shutdown()

		queue := jobs.NewManager(redisOpt, log)
		defer func() {
			if cerr := queue.Close(); cerr != nil {
				log.Warn("error closing job queue client", slog.Any("error", cerr))
			}
		}()

		// A snapshot start means the dataset file was unreadable; enqueue an
		// immediate refresh so asynq keeps retrying it instead of waiting for
		// the next scheduled run.
		if usedSnapshot {
			task, terr := jobs.NewCarparkRefreshTask(cfg.Parking.DatasetPath)
			if terr == nil {
				_, terr = queue.Enqueue(ctx, task)
			}
			if terr != nil {
				log.Warn("failed to enqueue startup dataset refresh", slog.Any("error", terr))
			}
		}
	}

	checker := health.NewChecker(log)
	checker.AddCheck("carparks", directory)
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}
	if db != nil {
		checker.AddCheck("database", health.NewDBChecker(db))
	}

	httpSrv := graceful.New(log, cfg.Server.Port, cfg.Server.ShutdownTimeout, map[string]http.Handler{
		"/health":  checker.Handler(),
		"/metrics": metrics.Handler(),
	}, logger.Middleware)
	go func() {
		if err := httpSrv.ListenAndServe(ctx); err != nil {
			log.Error("http server stopped", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	b.Start()

	log.Info("parkcheep bot shut down")
}
