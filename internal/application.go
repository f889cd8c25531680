package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spindlegames/arena-backend/internal/broadcast"
	"github.com/spindlegames/arena-backend/internal/config"
	"github.com/spindlegames/arena-backend/internal/repository"
	"github.com/spindlegames/arena-backend/internal/repository/storage"
	"github.com/spindlegames/arena-backend/internal/service"
	"github.com/spindlegames/arena-backend/internal/session"
	"github.com/spindlegames/arena-backend/internal/tournament"
	"github.com/spindlegames/arena-backend/transport/rest"
	"github.com/spindlegames/arena-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

const (
	janitorInterval = time.Minute
	sessionMaxIdle  = 10 * time.Minute
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	matchRepo := repository.NewMatchRepository(redisStorage.Connection)
	tournamentRepo := repository.NewTournamentRepository(redisStorage.Connection)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	hub := broadcast.NewHub(logger)
	registry := session.NewRegistry(logger)
	runner := session.NewRunner(logger)

	if err = registry.StartJanitor(janitorInterval, sessionMaxIdle); err != nil {
		return fmt.Errorf("could not start session janitor: %w", err)
	}

	defer func() {
		if err = registry.Close(); err != nil {
			log.Error("could not stop session janitor", "error", err)
		}
	}()

	brackets := tournament.NewEngine(logger, tournamentRepo, rng)
	outcome := service.NewOutcomeService(logger, matchRepo, brackets, hub)
	gameplay := service.NewGamePlayService(ctx, logger, matchRepo, registry, runner, hub, outcome, rng)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort, rest.NewHealthHandler(registry)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameplay, brackets, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
