package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/config"
	"github.com/iliyamo/court-reservation/internal/database"
	"github.com/iliyamo/court-reservation/internal/handler"
	"github.com/iliyamo/court-reservation/internal/middleware"
	"github.com/iliyamo/court-reservation/internal/queue"
	"github.com/iliyamo/court-reservation/internal/repository"
	"github.com/iliyamo/court-reservation/internal/router"
	"github.com/iliyamo/court-reservation/internal/service"
	"github.com/iliyamo/court-reservation/internal/utils"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)

	defaults, err := service.ParseCatalog(cfg.DefaultSlots)
	if err != nil {
		log.WithError(err).Fatal("DEFAULT_SLOTS is not a valid catalog")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("connect mysql")
	}
	defer db.Close()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	cancelMigrate()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	lockCfg := config.LoadLockConfig()
	var locker service.Locker
	if rdb != nil {
		defer rdb.Close()
		locker = service.NewRedisLocker(rdb, lockCfg.Prefix, lockCfg.TTL, lockCfg.Wait)
		log.Info("slot locks: redis")
	} else {
		locker = service.NewLocalLocker()
		log.Warn("redis unavailable: slot locks are per-process, rate limit and cache disabled")
	}

	qcfg := config.LoadQueueConfig()
	publisher := queue.NewPublisher(qcfg.URL, qcfg.Queue, log)
	defer publisher.Close()
	if qcfg.JournalEnabled {
		journal := queue.Journal{URL: qcfg.URL, Queue: qcfg.Queue, Dir: qcfg.JournalDir, Log: log}
		go func() {
			if err := journal.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("journal consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	bookings := repository.NewBookingRepo(db)
	clock := utils.SystemClock{}

	svc := service.NewBookingService(bookings, venues,
		service.WithLocker(locker),
		service.WithEvents(publisher),
		service.WithClock(clock),
		service.WithLogger(log),
	)

	cacheCfg := config.LoadCacheConfig()
	authH := handler.NewAuthHandler(cfg, users, tokens, clock)
	venueH := handler.NewVenueHandler(venues, defaults, rdb, cacheCfg.Prefix, cfg.RequestTimeout)
	bookingH := handler.NewBookingHandler(svc, cfg.RequestTimeout)
	adminH := handler.NewAdminHandler(handler.AdminRepos{
		Admin:    repository.NewAdminRepo(db),
		Users:    users,
		Bookings: bookings,
	}, svc, cfg.RequestTimeout)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, clock))

	deps := map[string]handler.Pinger{"mysql": db}
	if rdb != nil {
		deps["redis"] = handler.RedisPinger{Client: rdb}
	}
	gate := middleware.AccountGate(users, clock)
	router.RegisterRoutes(e, deps)
	router.RegisterAuth(e, authH, cfg.JWTSecret, gate)
	router.RegisterPublic(e, venueH, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterBookings(e, bookingH, cfg.JWTSecret, gate)
	router.RegisterAdmin(e, adminH, venueH, cfg.JWTSecret, gate)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
