package server

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hirelens/joinscore/internal/config"
	"github.com/hirelens/joinscore/internal/httputil"
	"github.com/hirelens/joinscore/internal/model"
	"github.com/hirelens/joinscore/internal/schema"
)

// modelManifest describes the contents of a model pack zip
type modelManifest struct {
	Format      string `json:"format"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Created     string `json:"created"`
}

// handleModelStatus returns the currently loaded model pack status
func (s *Server) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loaded := s.pipeline != nil
	s.mu.RUnlock()

	settings, err := config.LoadSettings()
	if err != nil {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"loaded": loaded,
			"error":  err.Error(),
		})
		return
	}

	modelDir := settings.ModelDir
	if modelDir == "" {
		modelDir = s.cfg.ModelDir
	}
	if modelDir == "" {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"loaded": loaded,
		})
		return
	}

	if _, err := os.Stat(modelDir); err != nil {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"loaded": loaded,
			"error":  "model directory no longer exists",
		})
		return
	}

	// Try to read manifest
	var manifest modelManifest
	manifestPath := filepath.Join(modelDir, "manifest.json")
	if data, err := os.ReadFile(manifestPath); err == nil {
		json.Unmarshal(data, &manifest)
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"loaded":      loaded,
		"path":        modelDir,
		"version":     manifest.Version,
		"description": manifest.Description,
	})
}

// handleModelInstall extracts a model pack zip, loads the artifacts, and
// swaps the scoring pipeline
func (s *Server) handleModelInstall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Path == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	// Validate file exists and is a zip
	if _, err := os.Stat(req.Path); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("file not found: %s", req.Path))
		return
	}
	if !strings.HasSuffix(strings.ToLower(req.Path), ".zip") {
		httputil.RespondError(w, http.StatusBadRequest, "file must be a .zip archive")
		return
	}

	// Determine extraction target
	storeDir, err := config.DataStoreDir()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("could not determine data directory: %v", err))
		return
	}
	extractDir := filepath.Join(storeDir, "models")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("could not create directory: %v", err))
		return
	}

	// Extract zip
	modelDir, err := extractModelPack(req.Path, extractDir)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	// Validate extracted contents before touching the live pipeline
	for _, name := range []string{
		model.ForestFileName, model.ScalerFileName, model.EncoderFileName, schema.ReferenceFileName,
	} {
		if _, err := os.Stat(filepath.Join(modelDir, name)); err != nil {
			httputil.RespondError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid model pack: missing %s", name))
			return
		}
	}

	pipeline, err := loadPipeline(modelDir, s.cfg.DefaultWeight)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("could not load model pack: %v", err))
		return
	}

	// Save settings
	settings, _ := config.LoadSettings()
	if settings == nil {
		settings = &config.Settings{}
	}
	settings.ModelDir = modelDir
	if err := config.SaveSettings(settings); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("could not save settings: %v", err))
		return
	}

	// Swap the live pipeline
	s.mu.Lock()
	s.pipeline = pipeline
	s.cfg.ModelDir = modelDir
	s.mu.Unlock()
	s.apiHandler.SetPipeline(pipeline)

	log.Printf("Model pack installed: %s", modelDir)
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"loaded":  true,
		"path":    modelDir,
		"message": "Model pack installed successfully.",
	})
}

// extractModelPack unzips a model pack archive into the target directory.
// Returns the path to the extracted pack root directory.
func extractModelPack(zipPath, targetDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("could not open zip: %w", err)
	}
	defer r.Close()

	// Find the common root directory name from the zip
	var rootDir string
	for _, f := range r.File {
		parts := strings.SplitN(f.Name, "/", 2)
		if len(parts) > 0 {
			rootDir = parts[0]
			break
		}
	}
	if rootDir == "" {
		return "", fmt.Errorf("empty zip archive")
	}

	packDir := filepath.Join(targetDir, rootDir)

	// Remove existing extraction if present
	os.RemoveAll(packDir)

	for _, f := range r.File {
		// Sanitize path to prevent zip slip
		destPath := filepath.Join(targetDir, f.Name)
		if !strings.HasPrefix(destPath, filepath.Clean(targetDir)+string(os.PathSeparator)) {
			return "", fmt.Errorf("illegal file path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(destPath, 0o755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return "", fmt.Errorf("could not create directory: %w", err)
		}

		outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return "", fmt.Errorf("could not create file: %w", err)
		}

		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return "", fmt.Errorf("could not open zip entry: %w", err)
		}

		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return "", fmt.Errorf("could not extract file: %w", err)
		}
	}

	return packDir, nil
}
