// Package models defines the request and response bodies of the HTTP API.
package models

import "github.com/hirelens/joinscore/internal/store"

// CreateUserRequest registers a new user under a company.
type CreateUserRequest struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      store.Role `json:"role"`
	CompanyID string     `json:"company_id"`
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	UserID      string     `json:"user_id"`
	Role        store.Role `json:"role"`
}

// CreateCompanyRequest registers a new company.
type CreateCompanyRequest struct {
	CompanyName     string `json:"company_name"`
	CompanyLocation string `json:"company_location"`
	CompanyEmail    string `json:"company_email"`
}

// FactorWeightage is one factor override inside AddCompanyFactorsRequest.
type FactorWeightage struct {
	FactorID  string  `json:"factor_id"`
	Weightage float64 `json:"weightage"`
}

// AddCompanyFactorsRequest attaches weighted factors to a company.
type AddCompanyFactorsRequest struct {
	Factors []FactorWeightage `json:"factors"`
}

// CreateFactorRequest registers a new scoring factor.
type CreateFactorRequest struct {
	FactorName        string `json:"factor_name"`
	FactorDescription string `json:"factor_description,omitempty"`
}

// CreateCandidateRequest registers a new candidate.
type CreateCandidateRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email,omitempty"`
	Location        string  `json:"location"`
	CurrentRole     string  `json:"current_role"`
	ExperienceYears float64 `json:"experience_years"`
	TargetRole      string  `json:"target_role"`
	TargetIndustry  string  `json:"target_industry"`
}

// CandidateFactorValue is one stored factor value inside
// SetCandidateFactorsRequest.
type CandidateFactorValue struct {
	FactorID string `json:"factor_id"`
	Value    string `json:"value"`
}

// SetCandidateFactorsRequest records a candidate's factor values.
type SetCandidateFactorsRequest struct {
	Factors []CandidateFactorValue `json:"factors"`
}

// ScoreRequest submits a batch for scoring. Rows carries explicit feature
// rows; when Rows is empty, CandidateIDs must be set and each candidate's
// stored factor values become its row. When both are present they must match
// one to one, and each scored row is persisted against its candidate.
type ScoreRequest struct {
	CompanyID    string           `json:"company_id"`
	Rows         []map[string]any `json:"rows,omitempty"`
	CandidateIDs []string         `json:"candidate_ids,omitempty"`
}

// ScorePrediction is the scored outcome for one row.
type ScorePrediction struct {
	CandidateID           string  `json:"candidate_id,omitempty"`
	ProbabilityPercentage float64 `json:"probability_percentage"`
	ProbabilitySummary    string  `json:"probability_summary"`
}

// ScoreResponse carries the per-row predictions in request order.
type ScoreResponse struct {
	Predictions []ScorePrediction `json:"predictions"`
}
