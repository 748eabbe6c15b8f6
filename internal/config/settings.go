package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings are the values persisted between runs. Flags override them.
type Settings struct {
	DataDir       string  `json:"data_dir,omitempty"`
	ModelDir      string  `json:"model_dir,omitempty"`
	JWTSecret     string  `json:"jwt_secret,omitempty"`
	DefaultWeight float64 `json:"default_weight,omitempty"`
}

// settingsPath returns the location of the settings file under the user's
// config directory.
func settingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(dir, "joinscore", "settings.json"), nil
}

// DataStoreDir returns the application's writable data directory, creating
// it if needed.
func DataStoreDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	storeDir := filepath.Join(dir, "joinscore")
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return "", fmt.Errorf("could not create data directory: %w", err)
	}
	return storeDir, nil
}

// LoadSettings reads saved settings. A missing file is not an error and
// yields zero-value settings.
func LoadSettings() (*Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse settings: %w", err)
	}
	return &s, nil
}

// SaveSettings writes settings to the user's config directory.
func SaveSettings(s *Settings) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write settings: %w", err)
	}
	return nil
}
