// Package httpapi implements the web backend boundary: a small REST surface
// in front of the orchestrator (C9), fronted by chi and go-playground
// validation, per SPEC_FULL.md's web-backend component.
package httpapi // import "github.com/propplyai/propply-ai/pkg/httpapi"

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	log "github.com/golang/glog"

	"github.com/propplyai/propply-ai/pkg/model"
	"github.com/propplyai/propply-ai/pkg/orchestrator"
	"github.com/propplyai/propply-ai/pkg/persistence"
	"github.com/propplyai/propply-ai/pkg/report"
)

var validate = validator.New()

// ComplianceRequest is the body POST /compliance accepts.
type ComplianceRequest struct {
	Address    string `json:"address" validate:"required"`
	Borough    string `json:"borough,omitempty"`
	PropertyID string `json:"property_id,omitempty"`
}

// Server wires the orchestrator, an optional persistence store, and a report
// sink behind an HTTP API.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Store        persistence.Store
	ReportDir    string
	AllowOrigins []string
}

// NewServer builds a Server. A nil Store is replaced with a NullStore so
// callers never need a nil check.
func NewServer(o *orchestrator.Orchestrator, store persistence.Store, reportDir string, allowOrigins []string) *Server {
	if store == nil {
		store = &persistence.NullStore{}
	}
	return &Server{Orchestrator: o, Store: store, ReportDir: reportDir, AllowOrigins: allowOrigins}
}

// Router builds the chi router for this Server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(150 * time.Second))

	origins := s.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Post("/compliance", s.handleCompliance)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	var req ComplianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.Orchestrator.Run(r.Context(), req.Address, req.Borough, model.DefaultRunConfig())
	if err != nil {
		log.Errorf("httpapi: orchestrator run failed for %q: %v", req.Address, err)
		writeError(w, statusForKind(model.KindOf(err)), "compliance run failed")
		return
	}

	if err := s.Store.PersistRecord(r.Context(), record); err != nil {
		log.Errorf("httpapi: persisting compliance record for %q: %v", req.Address, err)
	}
	if s.ReportDir != "" {
		if _, err := report.WriteFile(s.ReportDir, record); err != nil {
			log.Errorf("httpapi: writing report file for %q: %v", req.Address, err)
		}
	}

	writeJSON(w, http.StatusOK, record)
}

// statusForKind maps a model.ErrorKind to the HTTP status callers should see.
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindBadQuery:
		return http.StatusBadRequest
	case model.ErrorKindRate, model.ErrorKindNetwork:
		return http.StatusServiceUnavailable
	case model.ErrorKindRemote, model.ErrorKindDecode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
