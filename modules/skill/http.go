package skill

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

const routePrefix = "/tunein"

type queryRequest struct {
	Phrase string `json:"phrase"`
}

type queryResponse struct {
	Phrase     string  `json:"phrase"`
	Level      string  `json:"level"`
	Confidence float64 `json:"confidence"`
	Data       string  `json:"data"`
}

type startRequest struct {
	Phrase string `json:"phrase"`
	Data   string `json:"data"`
}

type intentRequest struct {
	Station   string `json:"station"`
	Utterance string `json:"utterance"`
}

type statusResponse struct {
	State     string `json:"state"`
	Station   string `json:"station,omitempty"`
	StreamURL string `json:"stream_url,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RegisterRoutes mounts the skill endpoints under /tunein.
func (s *Skill) RegisterRoutes(r *mux.Router) {
	sr := r.PathPrefix(routePrefix).Subrouter()
	sr.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	sr.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	sr.HandleFunc("/intent", s.handleIntent).Methods(http.MethodPost)
	sr.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	sr.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
}

func (s *Skill) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}

	m := s.MatchQueryPhrase(req.Phrase)
	s.writeJSON(w, http.StatusOK, queryResponse{
		Phrase:     m.Phrase,
		Level:      m.Level.String(),
		Confidence: m.Level.Confidence(),
		Data:       m.Data,
	})
}

func (s *Skill) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.StartPlayback(r.Context(), req.Phrase, req.Data); err != nil {
		s.writeError(w, err)
		return
	}

	s.handleStatus(w, r)
}

func (s *Skill) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.HandleStreamIntent(r.Context(), req.Station, req.Utterance); err != nil {
		s.writeError(w, err)
		return
	}

	s.handleStatus(w, r)
}

func (s *Skill) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.Stop(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	s.handleStatus(w, r)
}

func (s *Skill) handleStatus(w http.ResponseWriter, _ *http.Request) {
	info := s.Status()
	s.writeJSON(w, http.StatusOK, statusResponse{
		State:     info.State.String(),
		Station:   info.Station,
		StreamURL: info.StreamURL,
	})
}

func (s *Skill) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return false
	}

	return true
}

func (s *Skill) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
	case errors.Is(err, ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
	default:
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream", Message: err.Error()})
	}
}

func (s *Skill) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}
