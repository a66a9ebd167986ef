package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the record endpoint the sync client talks to.
type Server struct {
	store *Store
	auth  *Auth
}

// New returns the HTTP handler: /healthz and /metrics are public, the
// /v1/record operations require a bearer token.
func New(store *Store, auth *Auth) http.Handler {
	s := &Server{store: store, auth: auth}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/record", s.handleGetRecord)
		r.Put("/record", s.handlePutRecord)
	})
	return r
}

// wireRecord is the record's shape on the wire; user_id is filled by the
// server from the token, never trusted from the body.
type wireRecord struct {
	UserID    string          `json:"user_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt int64           `json:"updated_at"`
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	rec, err := s.store.Get(r.Context(), userID)
	if err != nil {
		recordFetch("error")
		writeError(w, http.StatusInternalServerError, "cannot read record")
		return
	}
	if rec == nil {
		recordFetch("absent")
		writeError(w, http.StatusNotFound, "no record")
		return
	}
	recordFetch("ok")
	writeJSON(w, http.StatusOK, wireRecord{
		UserID:    rec.UserID,
		Payload:   json.RawMessage(rec.Payload),
		UpdatedAt: rec.UpdatedAt,
	})
}

func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var in wireRecord
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		recordPush("bad_request")
		writeError(w, http.StatusBadRequest, "cannot parse record")
		return
	}
	if len(in.Payload) == 0 {
		recordPush("bad_request")
		writeError(w, http.StatusBadRequest, "record has no payload")
		return
	}

	// Stale writers are turned away instead of silently rewinding the
	// record; a client that lost the race fetches, merges and retries.
	current, err := s.store.Get(r.Context(), userID)
	if err != nil {
		recordPush("error")
		writeError(w, http.StatusInternalServerError, "cannot read record")
		return
	}
	if current != nil && in.UpdatedAt < current.UpdatedAt {
		recordPush("stale")
		writeError(w, http.StatusConflict, "record is newer than push")
		return
	}

	err = s.store.Put(r.Context(), Record{
		UserID:    userID,
		Payload:   []byte(in.Payload),
		UpdatedAt: in.UpdatedAt,
	})
	if err != nil {
		recordPush("error")
		writeError(w, http.StatusInternalServerError, "cannot write record")
		return
	}
	recordPushAccepted(time.Now())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
