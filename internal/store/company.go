package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/joinscore/internal/weights"
)

// Company is an employer whose candidates are scored.
type Company struct {
	CompanyID       string `json:"company_id"`
	CompanyName     string `json:"company_name"`
	CompanyLocation string `json:"company_location"`
	CompanyEmail    string `json:"company_email"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// CreateCompany inserts a new company.
func (s *Store) CreateCompany(c *Company) error {
	c.CompanyID = uuid.New().String()
	c.IsActive = true
	now := time.Now().UTC().Format(time.RFC3339)
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO company (company_id, company_name, company_location, company_email, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		c.CompanyID, c.CompanyName, c.CompanyLocation, c.CompanyEmail, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetCompany fetches a company by ID.
func (s *Store) GetCompany(companyID string) (*Company, error) {
	var c Company
	err := s.db.QueryRow(
		`SELECT company_id, company_name, company_location, company_email, is_active, created_at, updated_at
		 FROM company WHERE company_id = ?`, companyID).
		Scan(&c.CompanyID, &c.CompanyName, &c.CompanyLocation, &c.CompanyEmail, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// ListCompanies returns all companies, newest first.
func (s *Store) ListCompanies() ([]*Company, error) {
	rows, err := s.db.Query(
		`SELECT company_id, company_name, company_location, company_email, is_active, created_at, updated_at
		 FROM company ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.CompanyLocation, &c.CompanyEmail,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// SetCompanyFactor attaches a factor weightage to a company, updating the
// weightage and reactivating the association if it already exists.
func (s *Store) SetCompanyFactor(companyID, factorID string, weightage float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE company_factors SET weightage = ?, is_active = 1, updated_at = ?
		 WHERE company_id = ? AND factor_id = ?`,
		weightage, now, companyID, factorID)
	if err != nil {
		return fmt.Errorf("failed to update company factor: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.Exec(
		`INSERT INTO company_factors (company_factor_id, company_id, factor_id, weightage, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		uuid.New().String(), companyID, factorID, weightage, now, now)
	if err != nil {
		return fmt.Errorf("failed to create company factor: %w", err)
	}
	return nil
}

// ActiveOverrides returns a company's active factor weightages as the
// (factor name, weight) pairs the weight resolver consumes.
func (s *Store) ActiveOverrides(companyID string) ([]weights.Override, error) {
	rows, err := s.db.Query(
		`SELECT f.factor_name, cf.weightage
		 FROM company_factors cf
		 JOIN factors f ON f.factor_id = cf.factor_id
		 WHERE cf.company_id = ? AND cf.is_active = 1 AND f.is_active = 1
		 ORDER BY f.factor_name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query company factors: %w", err)
	}
	defer rows.Close()

	var overrides []weights.Override
	for rows.Next() {
		var o weights.Override
		if err := rows.Scan(&o.Factor, &o.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan company factor: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
