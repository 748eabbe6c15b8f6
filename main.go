package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hirelens/joinscore/internal/config"
	"github.com/hirelens/joinscore/internal/server"
)

var version = "dev"

func main() {
	// Parse command-line flags
	port := flag.Int("port", 8080, "HTTP server port")
	dataDir := flag.String("data-dir", "", "Directory for application data (database)")
	modelDir := flag.String("model-dir", "", "Directory containing model artifacts (forest, scaler, encoder, schema)")
	jwtSecret := flag.String("jwt-secret", "", "Secret used to sign access tokens")
	defaultWeight := flag.Float64("default-weight", 0, "Default factor weight when a company has no override")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("JoinScore v%s\n", version)
		os.Exit(0)
	}

	// Resolve configuration:
	// 1. Explicit flags take priority
	// 2. Otherwise, fall back to saved settings
	// 3. Finally, fall back to local defaults
	resolvedDataDir := *dataDir
	resolvedModelDir := *modelDir
	resolvedSecret := *jwtSecret
	resolvedWeight := *defaultWeight

	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Warning: could not load settings: %v", err)
	} else {
		if resolvedDataDir == "" {
			resolvedDataDir = settings.DataDir
		}
		if resolvedModelDir == "" && settings.ModelDir != "" {
			if _, err := os.Stat(settings.ModelDir); err == nil {
				resolvedModelDir = settings.ModelDir
				log.Printf("Using model pack: %s", settings.ModelDir)
			} else {
				log.Printf("Warning: saved model directory no longer exists: %s", settings.ModelDir)
			}
		}
		if resolvedSecret == "" {
			resolvedSecret = settings.JWTSecret
		}
		if resolvedWeight == 0 {
			resolvedWeight = settings.DefaultWeight
		}
	}

	if resolvedDataDir == "" {
		resolvedDataDir = "./data"
	}
	if resolvedModelDir == "" {
		resolvedModelDir = "./model"
	}
	if resolvedSecret == "" {
		log.Fatal("A JWT secret is required; set -jwt-secret or save it in settings")
	}
	if err := os.MkdirAll(resolvedDataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(*port, 10)
	if err != nil {
		log.Fatalf("Failed to find available port: %v", err)
	}
	if availablePort != *port {
		log.Printf("Port %d in use, using port %d instead", *port, availablePort)
	}

	// Build configuration
	cfg := config.Config{
		Port:          availablePort,
		DataDir:       resolvedDataDir,
		ModelDir:      resolvedModelDir,
		DBPath:        filepath.Join(resolvedDataDir, "joinscore.db"),
		JWTSecret:     resolvedSecret,
		TokenExpiry:   24 * time.Hour,
		DefaultWeight: resolvedWeight,
		Version:       version,
	}

	log.Printf("JoinScore v%s starting on port %d", version, cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Model directory: %s", cfg.ModelDir)

	// Create and start the server
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for server to be ready
	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(serverURL, 10*time.Second)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %v signal, shutting down...", sig)
		if err := srv.Stop(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
}

// waitForServer polls until the server is accepting connections
func waitForServer(url string, timeout time.Duration) {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Printf("Warning: server may not be ready at %s", url)
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
