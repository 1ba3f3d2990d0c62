package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"agentgate/gateway"
	"agentgate/identity"
	"agentgate/internal/config"
	"agentgate/internal/db"
	"agentgate/server"
	"agentgate/sessions"
	"agentgate/tokencache"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	if len(c.GetSessionSecret()) == 0 && c.GetEnv() != "DEV" {
		return errors.New("SESSION_SECRET is required outside DEV")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, cleanup, err := openTokenStore(ctx, c)
	if err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	defer cleanup()

	provider, err := identity.New(ctx, c, store)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	srv := server.New(c, server.Deps{
		Identity: provider,
		Gateway:  gateway.NewClient(c),
		Sessions: sessions.NewInMemoryRepo(),
	})

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func openTokenStore(ctx context.Context, c config.Config) (tokencache.Store, func(), error) {
	switch c.GetTokenStoreKind() {
	case config.TokenStorePostgres:
		pool, err := db.Open(ctx, c.GetDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("token cache store: postgres")
		return tokencache.NewPostgresStore(pool), pool.Close, nil

	case config.TokenStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		log.Info().Msg("token cache store: redis")
		return tokencache.NewRedisStore(client), func() { _ = client.Close() }, nil

	default:
		log.Warn().Msg("token cache store: in-memory, entries do not survive restarts")
		return tokencache.NewInMemoryStore(), func() {}, nil
	}
}

func setupLogging(c config.EnvConfig) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
