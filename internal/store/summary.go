package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Summary is one stored prediction for a candidate: the normalized
// probability percentage and the explanation sentence.
type Summary struct {
	PredictionID          string  `json:"prediction_id"`
	CandidateID           string  `json:"candidate_id"`
	ProbabilityPercentage float64 `json:"probability_percentage"`
	ProbabilitySummary    string  `json:"probability_summary"`
	CreatedAt             string  `json:"created_at"`
}

// LatestPrediction is the most recent stored prediction for a candidate,
// joined with the candidate's name and status.
type LatestPrediction struct {
	CandidateID           string          `json:"candidate_id"`
	CandidateName         string          `json:"candidate_name"`
	ProbabilityPercentage float64         `json:"probability_percentage"`
	ProbabilitySummary    string          `json:"probability_summary"`
	CreatedAt             string          `json:"created_at"`
	Status                CandidateStatus `json:"status"`
}

// CreateSummary stores one prediction result.
func (s *Store) CreateSummary(sum *Summary) error {
	sum.PredictionID = uuid.New().String()
	sum.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.Exec(
		`INSERT INTO summary (prediction_id, candidate_id, probability_percentage, probability_summary, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sum.PredictionID, sum.CandidateID, sum.ProbabilityPercentage, sum.ProbabilitySummary, sum.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	return nil
}

// LatestPredictions returns each candidate's most recent stored prediction.
func (s *Store) LatestPredictions() ([]*LatestPrediction, error) {
	rows, err := s.db.Query(
		`SELECT sm.candidate_id, c.name, sm.probability_percentage, sm.probability_summary, sm.created_at, c.status
		 FROM summary sm
		 JOIN (SELECT candidate_id, MAX(created_at) AS latest_created_at
		       FROM summary GROUP BY candidate_id) latest
		   ON sm.candidate_id = latest.candidate_id AND sm.created_at = latest.latest_created_at
		 JOIN candidates c ON c.candidate_id = sm.candidate_id
		 ORDER BY sm.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*LatestPrediction
	for rows.Next() {
		var p LatestPrediction
		var status string
		if err := rows.Scan(&p.CandidateID, &p.CandidateName, &p.ProbabilityPercentage,
			&p.ProbabilitySummary, &p.CreatedAt, &status); err != nil {
			return nil, fmt.Errorf("failed to scan latest prediction: %w", err)
		}
		p.Status = CandidateStatus(status)
		predictions = append(predictions, &p)
	}
	return predictions, rows.Err()
}
