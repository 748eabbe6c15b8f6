package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/hirelens/joinscore/internal/auth"
	"github.com/hirelens/joinscore/internal/config"
	"github.com/hirelens/joinscore/internal/model"
	"github.com/hirelens/joinscore/internal/models"
	"github.com/hirelens/joinscore/internal/schema"
	"github.com/hirelens/joinscore/internal/scoring"
	"github.com/hirelens/joinscore/internal/store"
)

// testPipeline builds a pipeline whose single tree splits on the weighted
// scaled Distance: above the split it scores 700, below it 300.
func testPipeline() *scoring.Pipeline {
	arts := &model.Artifacts{
		Forest: &model.Forest{
			NumFeatures: 4,
			Trees: []model.Tree{
				{Nodes: []model.Node{
					{Feature: 2, Threshold: 0, Left: 1, Right: 2, Value: 500},
					{Feature: -1, Value: 300},
					{Feature: -1, Value: 700},
				}},
			},
		},
		Scaler: &model.Scaler{
			Columns: []string{"Distance", "Salary"},
			Mean:    []float64{30, 1000000},
			Scale:   []float64{10, 500000},
		},
		Encoder: &model.Encoder{
			Columns:    []string{"Location"},
			Categories: [][]string{{"Mumbai", "Delhi"}},
		},
	}
	ref := &schema.Reference{
		Schema: &schema.Schema{Columns: []schema.Column{
			{Name: "Location", Kind: schema.KindCategorical},
			{Name: "Distance", Kind: schema.KindNumerical},
			{Name: "Salary", Kind: schema.KindNumerical},
		}},
		Defaults: schema.FromRows([]map[string]any{
			{"Location": "Mumbai", "Distance": 30.0, "Salary": 1000000.0},
		}),
	}
	return scoring.NewPipeline(ref, arts, 0)
}

type testEnv struct {
	store  *store.Store
	tokens *auth.Manager
	router *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	tokens := auth.NewManager("test-secret", time.Hour)
	h := NewHandler(st, testPipeline(), tokens, config.Config{Version: "test"})
	router := mux.NewRouter()
	h.RegisterRoutes(router.PathPrefix("/api").Subrouter())
	return &testEnv{store: st, tokens: tokens, router: router}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	u := &store.User{UserID: "u-admin", Email: "admin@test", Role: store.RoleAdmin, CompanyID: "c-1"}
	token, err := e.tokens.CreateToken(u)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	return token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr := env.request(t, "GET", "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	response := decode[map[string]string](t, rr)
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

func TestInfoEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr := env.request(t, "GET", "/api/info", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	response := decode[map[string]interface{}](t, rr)
	if response["version"] != "test" {
		t.Errorf("Expected version 'test', got '%v'", response["version"])
	}
	if response["model_loaded"] != true {
		t.Errorf("Expected model_loaded true, got %v", response["model_loaded"])
	}
}

func TestUserRegistrationAndLogin(t *testing.T) {
	env := newTestEnv(t)

	company := &store.Company{CompanyName: "Acme", CompanyLocation: "Pune", CompanyEmail: "hr@acme.example"}
	if err := env.store.CreateCompany(company); err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}

	rr := env.request(t, "POST", "/api/users", "", models.CreateUserRequest{
		Name: "Asha", Email: "asha@acme.example", Password: "s3cret",
		Role: store.RoleRecruiter, CompanyID: company.CompanyID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.request(t, "POST", "/api/users/login", "", models.LoginRequest{
		Email: "asha@acme.example", Password: "s3cret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[models.LoginResponse](t, rr)
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Errorf("Unexpected login response: %+v", resp)
	}

	rr = env.request(t, "POST", "/api/users/login", "", models.LoginRequest{
		Email: "asha@acme.example", Password: "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad password, got %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	rr := env.request(t, "GET", "/api/candidates", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}
}

func TestFactorsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	recruiter := &store.User{UserID: "u-1", Email: "r@test", Role: store.RoleRecruiter, CompanyID: "c-1"}
	token, err := env.tokens.CreateToken(recruiter)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	rr := env.request(t, "POST", "/api/factors", token, models.CreateFactorRequest{FactorName: "Distance"})
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for recruiter, got %d", rr.Code)
	}

	rr = env.request(t, "POST", "/api/factors", env.adminToken(t), models.CreateFactorRequest{FactorName: "Distance"})
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201 for admin, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCompanyFactorFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.request(t, "POST", "/api/companies", token, models.CreateCompanyRequest{
		CompanyName: "Acme", CompanyLocation: "Pune", CompanyEmail: "hr@acme.example",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	company := decode[store.Company](t, rr)

	rr = env.request(t, "POST", "/api/factors", token, models.CreateFactorRequest{FactorName: "Distance"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	factor := decode[store.Factor](t, rr)

	rr = env.request(t, "POST", "/api/companies/"+company.CompanyID+"/factors", token,
		models.AddCompanyFactorsRequest{Factors: []models.FactorWeightage{
			{FactorID: factor.FactorID, Weightage: 0.9},
		}})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	overrides, err := env.store.ActiveOverrides(company.CompanyID)
	if err != nil {
		t.Fatalf("ActiveOverrides failed: %v", err)
	}
	if len(overrides) != 1 || overrides[0].Weight != 0.9 {
		t.Errorf("Unexpected overrides: %+v", overrides)
	}
}

func TestScoreEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.request(t, "POST", "/api/candidates", token, models.CreateCandidateRequest{
		Name: "Ravi", Location: "Mumbai", CurrentRole: "Analyst",
		ExperienceYears: 5, TargetRole: "Developer", TargetIndustry: "IT Services",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	candidate := decode[store.Candidate](t, rr)

	rr = env.request(t, "POST", "/api/score", token, models.ScoreRequest{
		CompanyID:    "c-1",
		Rows:         []map[string]any{{"Location": "Mumbai", "Distance": 45.0, "Salary": 1200000.0}},
		CandidateIDs: []string{candidate.CandidateID},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[models.ScoreResponse](t, rr)
	if len(resp.Predictions) != 1 {
		t.Fatalf("Expected 1 prediction, got %d", len(resp.Predictions))
	}
	// Raw score 700 rescales to 70 percent.
	if resp.Predictions[0].ProbabilityPercentage != 70 {
		t.Errorf("Expected probability 70, got %v", resp.Predictions[0].ProbabilityPercentage)
	}

	got, err := env.store.GetCandidate(candidate.CandidateID)
	if err != nil {
		t.Fatalf("GetCandidate failed: %v", err)
	}
	if got.Status != store.StatusPredictionGenerated {
		t.Errorf("Expected PredictionGenerated status, got %s", got.Status)
	}

	rr = env.request(t, "GET", "/api/predictions/latest", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	latest := decode[[]*store.LatestPrediction](t, rr)
	if len(latest) != 1 || latest[0].ProbabilityPercentage != 70 {
		t.Errorf("Unexpected latest predictions: %+v", latest)
	}
}

func TestScoreFromStoredFactorValues(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.request(t, "POST", "/api/candidates", token, models.CreateCandidateRequest{
		Name: "Ravi", Location: "Mumbai", CurrentRole: "Analyst",
		ExperienceYears: 5, TargetRole: "Developer", TargetIndustry: "IT Services",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	candidate := decode[store.Candidate](t, rr)

	factorIDs := make(map[string]string)
	for _, name := range []string{"Location", "Distance", "Salary"} {
		rr = env.request(t, "POST", "/api/factors", token, models.CreateFactorRequest{FactorName: name})
		if rr.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		factorIDs[name] = decode[store.Factor](t, rr).FactorID
	}

	rr = env.request(t, "POST", "/api/candidates/"+candidate.CandidateID+"/factors", token,
		models.SetCandidateFactorsRequest{Factors: []models.CandidateFactorValue{
			{FactorID: factorIDs["Location"], Value: "Mumbai"},
			{FactorID: factorIDs["Distance"], Value: "45"},
			{FactorID: factorIDs["Salary"], Value: "1200000"},
		}})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// No explicit rows: the candidate's stored values become the batch.
	rr = env.request(t, "POST", "/api/score", token, models.ScoreRequest{
		CompanyID:    "c-1",
		CandidateIDs: []string{candidate.CandidateID},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[models.ScoreResponse](t, rr)
	if len(resp.Predictions) != 1 || resp.Predictions[0].ProbabilityPercentage != 70 {
		t.Errorf("Unexpected predictions: %+v", resp.Predictions)
	}
}

func TestScoreRejectsBadBatch(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rr := env.request(t, "POST", "/api/score", token, models.ScoreRequest{
		CompanyID: "c-1",
		Rows:      []map[string]any{{"Distance": "far"}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric value, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.request(t, "POST", "/api/score", token, models.ScoreRequest{CompanyID: "c-1"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty rows, got %d", rr.Code)
	}

	rr = env.request(t, "POST", "/api/score", token, models.ScoreRequest{
		CompanyID:    "c-1",
		Rows:         []map[string]any{{"Distance": 45.0}},
		CandidateIDs: []string{"a", "b"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for mismatched candidate_ids, got %d", rr.Code)
	}
}
