package config

import "time"

// Config holds the application configuration
type Config struct {
	Port          int
	DataDir       string
	ModelDir      string
	DBPath        string
	JWTSecret     string
	TokenExpiry   time.Duration
	DefaultWeight float64
	Version       string
}
