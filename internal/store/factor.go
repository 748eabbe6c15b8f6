package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Factor is a named scoring feature companies can weight.
type Factor struct {
	FactorID          string `json:"factor_id"`
	FactorName        string `json:"factor_name"`
	FactorDescription string `json:"factor_description,omitempty"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// CreateFactor inserts a new factor.
func (s *Store) CreateFactor(f *Factor) error {
	f.FactorID = uuid.New().String()
	f.IsActive = true
	now := time.Now().UTC().Format(time.RFC3339)
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO factors (factor_id, factor_name, factor_description, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		f.FactorID, f.FactorName, f.FactorDescription, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create factor: %w", err)
	}
	return nil
}

// GetFactor fetches a factor by ID.
func (s *Store) GetFactor(factorID string) (*Factor, error) {
	var f Factor
	err := s.db.QueryRow(
		`SELECT factor_id, factor_name, factor_description, is_active, created_at, updated_at
		 FROM factors WHERE factor_id = ?`, factorID).
		Scan(&f.FactorID, &f.FactorName, &f.FactorDescription, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get factor: %w", err)
	}
	return &f, nil
}

// ListFactors returns all factors in name order.
func (s *Store) ListFactors() ([]*Factor, error) {
	rows, err := s.db.Query(
		`SELECT factor_id, factor_name, factor_description, is_active, created_at, updated_at
		 FROM factors ORDER BY factor_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list factors: %w", err)
	}
	defer rows.Close()

	var factors []*Factor
	for rows.Next() {
		var f Factor
		if err := rows.Scan(&f.FactorID, &f.FactorName, &f.FactorDescription,
			&f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan factor: %w", err)
		}
		factors = append(factors, &f)
	}
	return factors, rows.Err()
}
