package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"betledger/internal/bet"
	"betledger/internal/db"
	"betledger/internal/method"
	"betledger/internal/stats"
)

const maxBodyBytes = 1 << 20

// betBody is a bet request. Absent fields are nil so PUT can merge.
type betBody struct {
	Timestamp  *bet.Timestamp `json:"timestamp"`
	Game       *string        `json:"game"`
	MethodID   *int64         `json:"methodId"`
	Risk       *float64       `json:"risk"`
	ProfitLoss *float64       `json:"profitLoss"`
}

// missing names the first absent field, or "" if all are present.
func (b betBody) missing() string {
	switch {
	case b.Timestamp == nil:
		return "timestamp"
	case b.Game == nil:
		return "game"
	case b.MethodID == nil:
		return "methodId"
	case b.Risk == nil:
		return "risk"
	case b.ProfitLoss == nil:
		return "profitLoss"
	}
	return ""
}

// merge overlays the present fields onto f.
func (b betBody) merge(f bet.Fields) bet.Fields {
	if b.Timestamp != nil {
		f.Timestamp = *b.Timestamp
	}
	if b.Game != nil {
		f.Game = strings.TrimSpace(*b.Game)
	}
	if b.MethodID != nil {
		f.MethodID = *b.MethodID
	}
	if b.Risk != nil {
		f.Risk = *b.Risk
	}
	if b.ProfitLoss != nil {
		f.ProfitLoss = *b.ProfitLoss
	}
	return f
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list bets", err)
		return
	}
	s.respondJSON(w, http.StatusOK, bets)
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var body betBody
	if !s.decode(w, r, &body) {
		return
	}
	if field := body.missing(); field != "" {
		s.respondError(w, http.StatusBadRequest, field+" is required", nil)
		return
	}

	f := body.merge(bet.Fields{})
	if err := bet.Validate(f); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	created, err := s.store.CreateBet(r.Context(), f)
	if err != nil {
		s.respondStoreError(w, "failed to create bet", err)
		return
	}
	s.metrics.mutation("bet", "create")
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) updateBet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var body betBody
	if !s.decode(w, r, &body) {
		return
	}

	current, err := s.store.GetBet(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, "failed to load bet", err)
		return
	}

	f := body.merge(current.Fields)
	if err := bet.Validate(f); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	updated, err := s.store.UpdateBet(r.Context(), id, f)
	if err != nil {
		s.respondStoreError(w, "failed to update bet", err)
		return
	}
	s.metrics.mutation("bet", "update")
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteBet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteBet(r.Context(), id); err != nil {
		s.respondStoreError(w, "failed to delete bet", err)
		return
	}
	s.metrics.mutation("bet", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.methods.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list methods", err)
		return
	}
	s.respondJSON(w, http.StatusOK, methods)
}

func (s *Server) createMethod(w http.ResponseWriter, r *http.Request) {
	var body method.Body
	if !s.decode(w, r, &body) {
		return
	}
	created, err := s.methods.Create(r.Context(), body.Name)
	if err != nil {
		s.respondStoreError(w, "failed to create method", err)
		return
	}
	s.metrics.mutation("method", "create")
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) updateMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var body method.Body
	if !s.decode(w, r, &body) {
		return
	}
	updated, err := s.methods.Update(r.Context(), id, body.Name)
	if err != nil {
		s.respondStoreError(w, "failed to update method", err)
		return
	}
	s.metrics.mutation("method", "update")
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.methods.Delete(r.Context(), id); err != nil {
		s.respondStoreError(w, "failed to delete method", err)
		return
	}
	s.metrics.mutation("method", "delete")
	w.WriteHeader(http.StatusNoContent)
}

// statistics aggregates the current bets on every call.
func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to compute statistics", err)
		return
	}
	snap := stats.Aggregate(bets)
	stats.LogSnapshot(s.log, snap)
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", raw), nil)
		return 0, false
	}
	return id, true
}

// respondStoreError maps validation and storage errors to status codes.
func (s *Server) respondStoreError(w http.ResponseWriter, fallback string, err error) {
	switch {
	case bet.IsValidation(err):
		s.respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, db.ErrUnknownMethod):
		s.respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, db.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, db.ErrDuplicateMethod), errors.Is(err, db.ErrMethodInUse):
		s.respondError(w, http.StatusConflict, err.Error(), nil)
	default:
		s.respondError(w, http.StatusInternalServerError, fallback, err)
	}
}

// respondJSON encodes data before writing the status, so an encoding failure
// becomes a 500 with an {error} body rather than an empty success.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).WithField("status", status).Error("encoding response")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "could not encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError writes an {error} body. err, when set, is logged but not sent.
func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.log.WithError(err).WithField("status", status).Error(message)
	}
	s.respondJSON(w, status, errorResponse{Error: message})
}
