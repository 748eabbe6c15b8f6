// Package store persists the candidate-evaluation records: users, companies,
// factors, per-company factor weightages, candidates, and stored prediction
// summaries.
package store

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

const ddl = `
CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	role          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	company_id    TEXT NOT NULL REFERENCES company(company_id),
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS company (
	company_id       TEXT PRIMARY KEY,
	company_name     TEXT NOT NULL,
	company_location TEXT NOT NULL,
	company_email    TEXT NOT NULL,
	is_active        INTEGER NOT NULL DEFAULT 1,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS factors (
	factor_id          TEXT PRIMARY KEY,
	factor_name        TEXT NOT NULL UNIQUE,
	factor_description TEXT,
	is_active          INTEGER NOT NULL DEFAULT 1,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS company_factors (
	company_factor_id TEXT PRIMARY KEY,
	company_id        TEXT NOT NULL REFERENCES company(company_id),
	factor_id         TEXT NOT NULL REFERENCES factors(factor_id),
	weightage         REAL NOT NULL DEFAULT 1.0,
	is_active         INTEGER NOT NULL DEFAULT 1,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	UNIQUE (company_id, factor_id)
);

CREATE TABLE IF NOT EXISTS candidates (
	candidate_id     TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	email            TEXT UNIQUE,
	location         TEXT NOT NULL,
	current_role     TEXT NOT NULL,
	experience_years REAL NOT NULL,
	target_role      TEXT NOT NULL,
	target_industry  TEXT NOT NULL,
	status           TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS candidate_factors (
	candidate_factor_id TEXT PRIMARY KEY,
	candidate_id        TEXT NOT NULL REFERENCES candidates(candidate_id),
	factor_id           TEXT NOT NULL REFERENCES factors(factor_id),
	factor_value        TEXT NOT NULL,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL,
	UNIQUE (candidate_id, factor_id)
);

CREATE TABLE IF NOT EXISTS summary (
	prediction_id          TEXT PRIMARY KEY,
	candidate_id           TEXT NOT NULL REFERENCES candidates(candidate_id),
	probability_percentage REAL NOT NULL,
	probability_summary    TEXT NOT NULL,
	created_at             TEXT NOT NULL
);
`

// Store wraps the sqlite database holding all evaluation records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("Opened store: %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
