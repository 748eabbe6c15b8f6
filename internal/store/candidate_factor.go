package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SetCandidateFactor records a candidate's value for a factor, updating it
// in place if one is already stored.
func (s *Store) SetCandidateFactor(candidateID, factorID, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE candidate_factors SET factor_value = ?, updated_at = ?
		 WHERE candidate_id = ? AND factor_id = ?`,
		value, now, candidateID, factorID)
	if err != nil {
		return fmt.Errorf("failed to update candidate factor: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.Exec(
		`INSERT INTO candidate_factors (candidate_factor_id, candidate_id, factor_id, factor_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), candidateID, factorID, value, now, now)
	if err != nil {
		return fmt.Errorf("failed to create candidate factor: %w", err)
	}
	return nil
}

// CandidateFactorValues returns a candidate's stored factor values keyed by
// factor name, as a feature row. Values that parse as numbers come back as
// float64 so numerical schema columns accept them.
func (s *Store) CandidateFactorValues(candidateID string) (map[string]any, error) {
	rows, err := s.db.Query(
		`SELECT f.factor_name, cf.factor_value
		 FROM candidate_factors cf
		 JOIN factors f ON f.factor_id = cf.factor_id
		 WHERE cf.candidate_id = ? AND f.is_active = 1`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate factors: %w", err)
	}
	defer rows.Close()

	values := make(map[string]any)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan candidate factor: %w", err)
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			values[name] = f
		} else {
			values[name] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return values, nil
}
