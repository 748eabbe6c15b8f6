package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role restricts user accounts to the closed set of application roles.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleRecruiter Role = "Recruiter"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleRecruiter
}

// User is an application account belonging to a company.
type User struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
	CompanyID    string `json:"company_id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// CreateUser inserts a new user and fills in its generated ID and timestamps.
func (s *Store) CreateUser(u *User) error {
	if !ValidRole(u.Role) {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	u.UserID = uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO users (user_id, name, email, role, password_hash, company_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.Name, u.Email, string(u.Role), u.PasswordHash, u.CompanyID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks a user up by email address.
func (s *Store) GetUserByEmail(email string) (*User, error) {
	var u User
	var role string
	err := s.db.QueryRow(
		`SELECT user_id, name, email, role, password_hash, company_id, created_at, updated_at
		 FROM users WHERE email = ?`, email).
		Scan(&u.UserID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = Role(role)
	return &u, nil
}
