package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hirelens/joinscore/internal/store"
)

func testUser() *store.User {
	return &store.User{
		UserID:    "u-1",
		Email:     "asha@acme.example",
		Role:      store.RoleRecruiter,
		CompanyID: "c-1",
	}
}

func TestCreateAndVerifyToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.CreateToken(testUser())
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.CompanyID != "c-1" || claims.Role != store.RoleRecruiter {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.CreateToken(testUser())
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	other := NewManager("other-secret", time.Hour)
	if _, err := other.VerifyToken(token); err == nil {
		t.Error("Expected verification to fail with wrong secret")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	token, err := m.CreateToken(testUser())
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := m.VerifyToken(token); err == nil {
		t.Error("Expected verification to fail for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Error("Hash should not equal the plain password")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("Expected wrong password to fail")
	}
}

func TestMiddleware(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.CreateToken(testUser())
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	var gotClaims *Claims
	handler := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/candidates", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
	if gotClaims == nil || gotClaims.UserID != "u-1" {
		t.Errorf("Expected claims on context, got %+v", gotClaims)
	}

	req = httptest.NewRequest("GET", "/candidates", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}
}

func TestMiddlewareRoleGate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.CreateToken(testUser())
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	handler := m.Middleware(store.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/factors", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for recruiter on admin route, got %d", rr.Code)
	}
}
