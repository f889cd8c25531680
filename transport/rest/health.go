package rest

import (
	"encoding/json"
	"net/http"
)

type sessionCounter interface {
	Len() int
}

type HealthHandler interface {
	HealthHandler(w http.ResponseWriter, req *http.Request)
}

type healthHandler struct {
	sessions sessionCounter
}

func NewHealthHandler(sessions sessionCounter) HealthHandler {
	return &healthHandler{sessions: sessions}
}

// HealthHandler - reports liveness plus the number of rooms currently
// simulated by this process.
func (that *healthHandler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	payload := struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}{
		Status:   "ok",
		Sessions: that.sessions.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
