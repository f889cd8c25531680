package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spindlegames/arena-backend/internal/broadcast"
	"github.com/spindlegames/arena-backend/internal/service"
	"github.com/spindlegames/arena-backend/internal/tournament"
)

const (
	writeTimeout = 10 * time.Second

	// maxMessageSize bounds a single client frame; game inputs are tiny.
	maxMessageSize = 1024
)

type Server struct {
	logger   *slog.Logger
	gameplay service.GamePlayService
	brackets *tournament.Engine
	hub      *broadcast.Hub

	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, gameplay service.GamePlayService, brackets *tournament.Engine, hub *broadcast.Hub) *Server {
	return &Server{
		logger:   logger,
		gameplay: gameplay,
		brackets: brackets,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Start - starts the WebSocket server and shuts it down when ctx ends.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/pong", that.handlePong)
	mux.HandleFunc("/ws/tictactoe", that.handleTicTacToe)
	mux.HandleFunc("/ws/tournament", that.handleTournament)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgrade - negotiates the WebSocket handshake.
func (that *Server) upgrade(writer http.ResponseWriter, req *http.Request) (*websocket.Conn, error) {
	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)

	return conn, nil
}

// writePump - drains a subscriber's stream into the connection. It
// returns when the subscriber leaves its room and the hub closes the
// channel, or when a write fails.
func (that *Server) writePump(conn *websocket.Conn, sub *broadcast.Subscriber) {
	for data := range sub.C() {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// closeWithReason - sends a close frame carrying a refusal and drops
// the connection.
func (that *Server) closeWithReason(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeTimeout)
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)

	if err := conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		that.logger.Debug("failed to write close frame", "error", err)
	}

	conn.Close()
}
