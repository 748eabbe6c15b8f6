package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/hirelens/joinscore/internal/auth"
	"github.com/hirelens/joinscore/internal/config"
	"github.com/hirelens/joinscore/internal/httputil"
	"github.com/hirelens/joinscore/internal/models"
	"github.com/hirelens/joinscore/internal/schema"
	"github.com/hirelens/joinscore/internal/scoring"
	"github.com/hirelens/joinscore/internal/store"
)

// Handler provides HTTP API endpoints
type Handler struct {
	store  *store.Store
	tokens *auth.Manager
	cfg    config.Config

	mu       sync.RWMutex
	pipeline *scoring.Pipeline
}

// NewHandler creates a new API handler
func NewHandler(st *store.Store, pipeline *scoring.Pipeline, tokens *auth.Manager, cfg config.Config) *Handler {
	return &Handler{
		store:    st,
		pipeline: pipeline,
		tokens:   tokens,
		cfg:      cfg,
	}
}

// SetPipeline swaps in a newly loaded scoring pipeline. In-flight requests
// keep the pipeline they started with.
func (h *Handler) SetPipeline(p *scoring.Pipeline) {
	h.mu.Lock()
	h.pipeline = p
	h.mu.Unlock()
}

func (h *Handler) currentPipeline() *scoring.Pipeline {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pipeline
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Users and authentication
	r.HandleFunc("/users", h.handleCreateUser).Methods("POST")
	r.HandleFunc("/users/login", h.handleLogin).Methods("POST")

	// Companies and their factor weightages
	authed := r.NewRoute().Subrouter()
	authed.Use(h.tokens.Middleware())
	authed.HandleFunc("/companies", h.handleCreateCompany).Methods("POST")
	authed.HandleFunc("/companies", h.handleListCompanies).Methods("GET")
	authed.HandleFunc("/companies/{id}", h.handleGetCompany).Methods("GET")
	authed.HandleFunc("/companies/{id}/factors", h.handleAddCompanyFactors).Methods("POST")

	// Factors are managed by admins only
	admin := r.NewRoute().Subrouter()
	admin.Use(h.tokens.Middleware(store.RoleAdmin))
	admin.HandleFunc("/factors", h.handleCreateFactor).Methods("POST")
	authed.HandleFunc("/factors", h.handleListFactors).Methods("GET")

	// Candidates and scoring
	authed.HandleFunc("/candidates", h.handleCreateCandidate).Methods("POST")
	authed.HandleFunc("/candidates", h.handleListCandidates).Methods("GET")
	authed.HandleFunc("/candidates/{id}", h.handleGetCandidate).Methods("GET")
	authed.HandleFunc("/candidates/{id}/factors", h.handleSetCandidateFactors).Methods("POST")
	authed.HandleFunc("/score", h.handleScore).Methods("POST")
	authed.HandleFunc("/predictions/latest", h.handleLatestPredictions).Methods("GET")
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":      h.cfg.Version,
		"model_loaded": h.currentPipeline() != nil,
	}
	httputil.RespondJSON(w, http.StatusOK, info)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !store.ValidRole(req.Role) {
		httputil.RespondError(w, http.StatusBadRequest, "role must be Admin or Recruiter")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "could not hash password")
		return
	}
	u := &store.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: hash,
		CompanyID:    req.CompanyID,
	}
	if err := h.store.CreateUser(u); err != nil {
		httputil.RespondError(w, http.StatusConflict, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.store.GetUserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		httputil.RespondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.CreateToken(u)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      u.UserID,
		Role:        u.Role,
	})
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyName == "" {
		httputil.RespondError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	c := &store.Company{
		CompanyName:     req.CompanyName,
		CompanyLocation: req.CompanyLocation,
		CompanyEmail:    req.CompanyEmail,
	}
	if err := h.store.CreateCompany(c); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.ListCompanies()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if companies == nil {
		companies = []*store.Company{}
	}
	httputil.RespondJSON(w, http.StatusOK, companies)
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCompany(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleAddCompanyFactors(w http.ResponseWriter, r *http.Request) {
	companyID := mux.Vars(r)["id"]
	if _, err := h.store.GetCompany(companyID); errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "company not found")
		return
	}

	var req models.AddCompanyFactorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Factors) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "factors list is empty")
		return
	}

	for _, fw := range req.Factors {
		if _, err := h.store.GetFactor(fw.FactorID); errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "factor not found: "+fw.FactorID)
			return
		}
		if err := h.store.SetCompanyFactor(companyID, fw.FactorID, fw.Weightage); err != nil {
			httputil.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "factors updated"})
}

func (h *Handler) handleCreateFactor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FactorName == "" {
		httputil.RespondError(w, http.StatusBadRequest, "factor_name is required")
		return
	}

	f := &store.Factor{FactorName: req.FactorName, FactorDescription: req.FactorDescription}
	if err := h.store.CreateFactor(f); err != nil {
		httputil.RespondError(w, http.StatusConflict, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, f)
}

func (h *Handler) handleListFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.store.ListFactors()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if factors == nil {
		factors = []*store.Factor{}
	}
	httputil.RespondJSON(w, http.StatusOK, factors)
}

func (h *Handler) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := &store.Candidate{
		Name:            req.Name,
		Email:           req.Email,
		Location:        req.Location,
		CurrentRole:     req.CurrentRole,
		ExperienceYears: req.ExperienceYears,
		TargetRole:      req.TargetRole,
		TargetIndustry:  req.TargetIndustry,
		Status:          store.StatusPending,
	}
	if err := h.store.CreateCandidate(c); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.store.ListCandidates()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if candidates == nil {
		candidates = []*store.Candidate{}
	}
	httputil.RespondJSON(w, http.StatusOK, candidates)
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCandidate(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "candidate not found")
		return
	}
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleSetCandidateFactors(w http.ResponseWriter, r *http.Request) {
	candidateID := mux.Vars(r)["id"]
	if _, err := h.store.GetCandidate(candidateID); errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "candidate not found")
		return
	}

	var req models.SetCandidateFactorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Factors) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "factors list is empty")
		return
	}

	for _, fv := range req.Factors {
		if _, err := h.store.GetFactor(fv.FactorID); errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "factor not found: "+fv.FactorID)
			return
		}
		if err := h.store.SetCandidateFactor(candidateID, fv.FactorID, fv.Value); err != nil {
			httputil.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "factors updated"})
}

// handleScore runs the scoring pipeline over a batch of feature rows.
// Raw model scores are rescaled to probability percentages (score/1000*100)
// before they are returned or persisted.
func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	pipeline := h.currentPipeline()
	if pipeline == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Rows) == 0 && len(req.CandidateIDs) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "rows or candidate_ids are required")
		return
	}
	if len(req.Rows) > 0 && len(req.CandidateIDs) > 0 && len(req.CandidateIDs) != len(req.Rows) {
		httputil.RespondError(w, http.StatusBadRequest, "candidate_ids must match rows one to one")
		return
	}

	// No explicit rows: build them from each candidate's stored factor values.
	if len(req.Rows) == 0 {
		req.Rows = make([]map[string]any, len(req.CandidateIDs))
		for i, candidateID := range req.CandidateIDs {
			row, err := h.store.CandidateFactorValues(candidateID)
			if errors.Is(err, store.ErrNotFound) {
				httputil.RespondError(w, http.StatusBadRequest,
					"no stored factor values for candidate "+candidateID)
				return
			}
			if err != nil {
				httputil.RespondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			req.Rows[i] = row
		}
	}

	resolved, err := h.store.ActiveOverrides(req.CompanyID)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results, err := pipeline.Run(req.CompanyID, schema.FromRows(req.Rows), resolved)
	if err != nil {
		httputil.RespondError(w, scoreErrorStatus(err), err.Error())
		return
	}

	resp := models.ScoreResponse{Predictions: make([]models.ScorePrediction, len(results))}
	for i, res := range results {
		percentage := res.Score / 1000 * 100
		pred := models.ScorePrediction{
			ProbabilityPercentage: percentage,
			ProbabilitySummary:    res.Summary,
		}
		if len(req.CandidateIDs) > 0 {
			candidateID := req.CandidateIDs[i]
			pred.CandidateID = candidateID
			summary := &store.Summary{
				CandidateID:           candidateID,
				ProbabilityPercentage: percentage,
				ProbabilitySummary:    res.Summary,
			}
			if err := h.store.CreateSummary(summary); err != nil {
				httputil.RespondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if err := h.store.UpdateCandidateStatus(candidateID, store.StatusPredictionGenerated); err != nil {
				log.Printf("Warning: could not update candidate %s status: %v", candidateID, err)
			}
		}
		resp.Predictions[i] = pred
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLatestPredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.store.LatestPredictions()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if predictions == nil {
		predictions = []*store.LatestPrediction{}
	}
	httputil.RespondJSON(w, http.StatusOK, predictions)
}

// scoreErrorStatus maps pipeline failures onto HTTP status codes. Bad input
// batches are the caller's fault; artifact and shape problems are ours.
func scoreErrorStatus(err error) int {
	switch {
	case errors.Is(err, schema.ErrSchemaMismatch), errors.Is(err, schema.ErrInvalidBatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
