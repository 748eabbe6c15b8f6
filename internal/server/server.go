package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/hirelens/joinscore/internal/api"
	"github.com/hirelens/joinscore/internal/auth"
	"github.com/hirelens/joinscore/internal/config"
	"github.com/hirelens/joinscore/internal/model"
	"github.com/hirelens/joinscore/internal/schema"
	"github.com/hirelens/joinscore/internal/scoring"
	"github.com/hirelens/joinscore/internal/store"
)

// Server holds all the components for the scoring service
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router
	store      *store.Store
	tokens     *auth.Manager
	apiHandler *api.Handler

	mu       sync.RWMutex
	pipeline *scoring.Pipeline
}

// New creates a new Server with all components initialized
func New(cfg config.Config) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		tokens: auth.NewManager(cfg.JWTSecret, cfg.TokenExpiry),
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("could not open store: %w", err)
	}
	s.store = st

	// Load model artifacts. The service still starts without them so that
	// CRUD endpoints work and a model pack can be installed later.
	pipeline, err := loadPipeline(cfg.ModelDir, cfg.DefaultWeight)
	if err != nil {
		log.Printf("Warning: scoring model not available: %v", err)
	} else {
		s.pipeline = pipeline
	}

	s.setupRoutes()

	return s, nil
}

// loadPipeline reads the model artifacts and reference schema from a model
// directory and assembles the scoring pipeline.
func loadPipeline(modelDir string, defaultWeight float64) (*scoring.Pipeline, error) {
	arts, err := model.LoadArtifacts(modelDir)
	if err != nil {
		return nil, err
	}
	ref, err := schema.LoadReference(filepath.Join(modelDir, schema.ReferenceFileName))
	if err != nil {
		return nil, err
	}
	return scoring.NewPipeline(ref, arts, defaultWeight), nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	s.apiHandler = api.NewHandler(s.store, s.pipeline, s.tokens, s.cfg)
	s.apiHandler.RegisterRoutes(apiRouter)

	// Model pack management routes
	s.router.HandleFunc("/api/model/status", s.handleModelStatus).Methods("GET")
	s.router.HandleFunc("/api/model/install", s.handleModelInstall).Methods("POST")
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("Warning: could not close store: %v", err)
		}
	}

	return s.httpServer.Shutdown(ctx)
}
