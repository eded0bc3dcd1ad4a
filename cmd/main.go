package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/commands"
	"attendance/sync/internal/pkg/config"
	"attendance/sync/internal/pkg/repository/postgresql"
	"attendance/sync/internal/repository/postgres/attendance"
	"attendance/sync/internal/repository/postgres/mapping"
	"attendance/sync/internal/repository/postgres/synccursor"
	"attendance/sync/internal/router"
	syncservice "attendance/sync/internal/service/sync"
	"attendance/sync/internal/service/vendor"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		log.Fatalln("startup error:", err)
	}
}

func run() error {
	var flags struct {
		Config  string `conf:"default:config.yaml"`
		Migrate bool   `conf:"default:false"`
	}
	if err := conf.Parse(os.Args[1:], "SYNC", &flags); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage("SYNC", &flags)
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil
		}
		return errors.Wrap(err, "parsing config flags")
	}

	cfg, err := config.NewConfig(flags.Config)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer logger.Sync()

	postgresDB := postgresql.NewDatabase(postgresql.Config{
		Username:   cfg.DBUsername,
		Password:   cfg.DBPassword,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		DisableTLS: cfg.DisableTLS,
		Debug:      cfg.DBDebug,
	})
	defer postgresDB.Close()

	if flags.Migrate {
		commands.MigrateUP(postgresDB)
		logger.Info("migrations applied")
		return nil
	}

	redisDB := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	defer redisDB.Close()

	cursorPostgres := synccursor.NewRepository(postgresDB)
	mappingPostgres := mapping.NewRepository(postgresDB)
	attendancePostgres := attendance.NewRepository(postgresDB)

	vendorClient := vendor.NewClient(cfg.Vendor, logger)
	statusStore := syncservice.NewStatusStore(redisDB)

	syncer := syncservice.NewSyncer(
		vendorClient,
		cursorPostgres,
		mappingPostgres,
		attendancePostgres,
		statusStore,
		logger,
		syncservice.Options{
			Retries:    cfg.Sync.Retries(),
			Backoff:    cfg.Sync.Backoff(),
			LateCutoff: cfg.Policy.LateGrace,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := syncservice.NewScheduler(syncer, cfg.Sync.StreamID, cfg.Sync.Interval(), logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("shutdown signal received")
		cancel()
		os.Exit(0)
	}()

	r := router.NewRouter(
		web.NewApp(),
		postgresDB,
		redisDB,
		":"+cfg.HTTPPort,
		cfg,
		syncer,
		logger,
	)

	return r.Init()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
