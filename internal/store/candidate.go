package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CandidateStatus tracks a candidate through the evaluation flow.
type CandidateStatus string

const (
	StatusPending             CandidateStatus = "Pending"
	StatusReviewed            CandidateStatus = "Reviewed"
	StatusPredictionGenerated CandidateStatus = "PredictionGenerated"
)

// ValidCandidateStatus reports whether st is one of the known states.
func ValidCandidateStatus(st CandidateStatus) bool {
	switch st {
	case StatusPending, StatusReviewed, StatusPredictionGenerated:
		return true
	}
	return false
}

// Candidate is an evaluated job candidate.
type Candidate struct {
	CandidateID     string          `json:"candidate_id"`
	Name            string          `json:"name"`
	Email           string          `json:"email,omitempty"`
	Location        string          `json:"location"`
	CurrentRole     string          `json:"current_role"`
	ExperienceYears float64         `json:"experience_years"`
	TargetRole      string          `json:"target_role"`
	TargetIndustry  string          `json:"target_industry"`
	Status          CandidateStatus `json:"status"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// CreateCandidate inserts a new candidate.
func (s *Store) CreateCandidate(c *Candidate) error {
	if !ValidCandidateStatus(c.Status) {
		return fmt.Errorf("invalid candidate status %q", c.Status)
	}
	c.CandidateID = uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	c.CreatedAt = now
	c.UpdatedAt = now

	var email any
	if c.Email != "" {
		email = c.Email
	}
	_, err := s.db.Exec(
		`INSERT INTO candidates (candidate_id, name, email, location, current_role, experience_years,
		                         target_role, target_industry, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CandidateID, c.Name, email, c.Location, c.CurrentRole, c.ExperienceYears,
		c.TargetRole, c.TargetIndustry, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate fetches a candidate by ID.
func (s *Store) GetCandidate(candidateID string) (*Candidate, error) {
	row := s.db.QueryRow(
		`SELECT candidate_id, name, email, location, current_role, experience_years,
		        target_role, target_industry, status, created_at, updated_at
		 FROM candidates WHERE candidate_id = ?`, candidateID)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns all candidates, newest first.
func (s *Store) ListCandidates() ([]*Candidate, error) {
	rows, err := s.db.Query(
		`SELECT candidate_id, name, email, location, current_role, experience_years,
		        target_role, target_industry, status, created_at, updated_at
		 FROM candidates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// UpdateCandidateStatus moves a candidate to a new state.
func (s *Store) UpdateCandidateStatus(candidateID string, status CandidateStatus) error {
	if !ValidCandidateStatus(status) {
		return fmt.Errorf("invalid candidate status %q", status)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE candidates SET status = ?, updated_at = ? WHERE candidate_id = ?`,
		string(status), now, candidateID)
	if err != nil {
		return fmt.Errorf("failed to update candidate status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var c Candidate
	var email sql.NullString
	var status string
	if err := row.Scan(&c.CandidateID, &c.Name, &email, &c.Location, &c.CurrentRole,
		&c.ExperienceYears, &c.TargetRole, &c.TargetIndustry, &status,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Status = CandidateStatus(status)
	return &c, nil
}
