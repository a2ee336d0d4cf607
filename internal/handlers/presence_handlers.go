package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dm-relay/pkg/logger"
)

// OnlineLister reports which users hold a bound connection.
type OnlineLister interface {
	Online(ctx context.Context) ([]string, error)
}

type PresenceHandlers struct {
	verifier TokenVerifier
	online   OnlineLister
}

type OnlineResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

func NewPresenceHandlers(verifier TokenVerifier, online OnlineLister) *PresenceHandlers {
	return &PresenceHandlers{
		verifier: verifier,
		online:   online,
	}
}

func (h *PresenceHandlers) ListOnline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := authenticate(h.verifier, r); err != nil {
		http.Error(w, unauthorizedMessage(err), http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	users, err := h.online.Online(ctx)
	if err != nil {
		logger.Error("List online users error: %v", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if users == nil {
		users = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OnlineResponse{Users: users, Count: len(users)})
}

func (h *PresenceHandlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
