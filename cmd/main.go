package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"eventdeck/cmd/buildCFG"
	"eventdeck/internal/api/api"
	"eventdeck/internal/cache"
	"eventdeck/internal/notify"
	"eventdeck/internal/service"
	"eventdeck/internal/session"
	"eventdeck/internal/store"
	"eventdeck/internal/syncworker"
	"eventdeck/internal/upstream"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	if err := godotenv.Load(); err == nil {
		log.Info().Msg(".env loaded")
	}

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	upstreamCfg, err := buildCFG.BuildUpstreamConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build upstream config")
	}
	sessionCfg := buildCFG.BuildSessionConfig(cfg, &log)
	cacheCfg := buildCFG.BuildCacheConfig(cfg, &log)
	authCfg := buildCFG.BuildAuthConfig(cfg, &log)

	sessions, err := session.NewStore(sessionCfg.Dir, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}
	if err := sessions.Rehydrate(); err != nil {
		log.Warn().Err(err).Msg("session rehydration failed, starting signed out")
	}

	client := upstream.New(upstreamCfg.BaseURL, sessions, &log)
	responses := cache.New(cacheCfg.ResponseTTL, cacheCfg.MaxEntries)
	membership := cache.New(cacheCfg.MembershipTTL, cacheCfg.MaxEntries)

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	var feed *notify.Publisher
	if rabbitCfg.Url != "" {
		feed, err = notify.New(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer feed.Close()
	} else {
		log.Info().Msg("change feed disabled (rabbit.url not set)")
	}

	serviceInstance := service.New(service.Deps{
		Client:     client,
		Events:     store.NewEventStore(),
		Guests:     store.NewGuestStore(),
		Session:    sessions,
		Responses:  responses,
		Membership: membership,
		Feed:       feed,
		Log:        &log,
	})

	if _, ok := sessions.Current(); !ok && authCfg.Email != "" {
		strategy := retry.Strategy{Attempts: 3, Delay: 2 * time.Second, Backoff: 2}
		err := retry.Do(func() error {
			_, lerr := serviceInstance.LoginWithCredentials(context.Background(), authCfg.Email, authCfg.Password, authCfg.Remember)
			return lerr
		}, strategy)
		if err != nil {
			log.Warn().Err(err).Msg("startup login failed, continuing signed out")
		}
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	var reader *syncworker.Reader
	if feed != nil {
		reader = syncworker.NewReader(feed, responses, serviceInstance)
		reader.Start(workerCtx)
	}

	app := api.NewRouters(&api.Routers{Service: serviceInstance})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}
	sessions.Close()

	log.Info().Msg("Shutdown complete")
}
