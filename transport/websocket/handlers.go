package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/broadcast"
	"github.com/spindlegames/arena-backend/internal/pong"
	"github.com/spindlegames/arena-backend/internal/service"
	"github.com/spindlegames/arena-backend/internal/session"
)

// pongMessage is a paddle key event from the client.
type pongMessage struct {
	Event string `json:"event"`
	Type  string `json:"type"`
}

// boardMessage is a board action from the client; only clicks carry a
// cell. Position is a pointer so a click on cell 0 is distinguishable
// from a frame with no position at all.
type boardMessage struct {
	Action   string `json:"action"`
	Position *int   `json:"position"`
}

// parseBoardClick - extracts the clicked cell. Anything that is not a
// well-formed click frame reports false.
func parseBoardClick(data []byte) (int, bool) {
	var message boardMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return 0, false
	}

	if message.Action != "click" || message.Position == nil {
		return 0, false
	}

	return *message.Position, true
}

// tournamentMessage carries bracket actions; only "start" is accepted.
type tournamentMessage struct {
	Action string `json:"action"`
}

// handlePong - attaches a player to a pong match room. Query params:
// match, player, plus mode=single and difficulty for AI games.
func (that *Server) handlePong(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handlePong")

	matchID := req.URL.Query().Get("match")
	userID := req.URL.Query().Get("player")

	if matchID == "" || userID == "" {
		http.Error(writer, "match and player are required", http.StatusBadRequest)
		return
	}

	singlePlayer := req.URL.Query().Get("mode") == "single"
	difficulty := pong.Difficulty(req.URL.Query().Get("difficulty"))

	conn, err := that.upgrade(writer, req)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sub := broadcast.NewSubscriber()
	that.hub.Join(service.MatchRoom(matchID), sub)
	go that.writePump(conn, sub)

	sess, err := that.gameplay.JoinPong(req.Context(), matchID, userID, singlePlayer, difficulty)
	if err != nil {
		that.hub.Leave(service.MatchRoom(matchID), sub)
		that.refuse(conn, err)

		log.Info("join refused", "match", matchID, "player", userID, "error", err)

		return
	}

	defer func() {
		that.hub.Leave(service.MatchRoom(matchID), sub)
		that.gameplay.Leave(req.Context(), sess, userID)
		conn.Close()
	}()

	that.readPongInputs(conn, sess, userID)
}

// handleTicTacToe - attaches a player to a board match room. Query
// params: match, player.
func (that *Server) handleTicTacToe(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleTicTacToe")

	matchID := req.URL.Query().Get("match")
	userID := req.URL.Query().Get("player")

	if matchID == "" || userID == "" {
		http.Error(writer, "match and player are required", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrade(writer, req)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sub := broadcast.NewSubscriber()
	that.hub.Join(service.MatchRoom(matchID), sub)
	go that.writePump(conn, sub)

	sess, err := that.gameplay.JoinTicTacToe(req.Context(), matchID, userID)
	if err != nil {
		that.hub.Leave(service.MatchRoom(matchID), sub)
		that.refuse(conn, err)

		log.Info("join refused", "match", matchID, "player", userID, "error", err)

		return
	}

	defer func() {
		that.hub.Leave(service.MatchRoom(matchID), sub)
		that.gameplay.Leave(req.Context(), sess, userID)
		conn.Close()
	}()

	that.readBoardClicks(req.Context(), conn, sess, userID)
}

// handleTournament - subscribes a client to a bracket's notice room.
// Query param: tournament.
func (that *Server) handleTournament(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleTournament")

	tournamentID := req.URL.Query().Get("tournament")
	if tournamentID == "" {
		http.Error(writer, "tournament is required", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrade(writer, req)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	room := service.TournamentRoom(tournamentID)

	sub := broadcast.NewSubscriber()
	that.hub.Join(room, sub)
	go that.writePump(conn, sub)

	defer func() {
		that.hub.Leave(room, sub)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var message tournamentMessage
		if err := json.Unmarshal(data, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)
			continue
		}

		if message.Action != "start" {
			continue
		}

		if err := that.brackets.Start(req.Context(), tournamentID); err != nil {
			log.Error("failed to start tournament", "tournament", tournamentID, "error", err)
		}
	}
}

func (that *Server) readPongInputs(conn *websocket.Conn, sess *session.Session, userID string) {
	log := that.logger.With("method", "readPongInputs", "room", sess.RoomID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var message pongMessage
		if err := json.Unmarshal(data, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)
			continue
		}

		that.gameplay.HandlePongInput(sess, userID, pong.Input{Event: message.Event, Type: message.Type})
	}
}

func (that *Server) readBoardClicks(ctx context.Context, conn *websocket.Conn, sess *session.Session, userID string) {
	log := that.logger.With("method", "readBoardClicks", "room", sess.RoomID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		position, ok := parseBoardClick(data)
		if !ok {
			log.Debug("dropping non-click frame")
			continue
		}

		that.gameplay.HandleClick(ctx, sess, userID, position)
	}
}

// refuse - maps a join rejection onto a close frame the client can
// show.
func (that *Server) refuse(conn *websocket.Conn, err error) {
	reason := "join refused"

	switch {
	case errors.Is(err, apperror.ErrMatchNotFound):
		reason = apperror.ErrMatchNotFound.Error()
	case errors.Is(err, apperror.ErrMatchFinished):
		reason = apperror.ErrMatchFinished.Error()
	case errors.Is(err, apperror.ErrNotParticipant):
		reason = apperror.ErrNotParticipant.Error()
	}

	that.closeWithReason(conn, reason)
}
