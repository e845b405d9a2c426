package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RennanRnz/rfv-project/internal/api"
	"github.com/RennanRnz/rfv-project/internal/api/handlers"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- accepts ledger uploads and returns the segmentation table
- serves the latest scheduled segmentation from the cache
- exposes the action table in force

Endpoints:
  GET  /health               - Health check
  POST /api/rfv/analyze      - Segment an uploaded ledger (?format=json|csv|xlsx)
  GET  /api/rfv/latest       - Latest scheduled segmentation
  GET  /api/rfv/actions      - Action table in force

Example:
  go run ./cmd/rfv api
  go run ./cmd/rfv api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFV API Server ===")

	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to Redis (disabled unless REDIS_ENABLED)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	var shared *redis.RateLimiter
	if redisClient.Enabled() {
		shared = redis.NewRateLimiter(redisClient, "rfv")
		log.Info("Connected to Redis")
	}

	// 4. Create service
	service, err := newService(cfg, redis.NewCache(redisClient, "rfv"), "", log)
	if err != nil {
		return err
	}

	// 5. Create handler and router
	segHandler := handlers.NewSegmentationHandler(service, sourceName(cfg), cfg.Upload.MaxBytes, log)
	limiter := api.NewUploadLimiter(cfg.Upload.RatePerSec, cfg.Upload.Burst, shared, log)
	router := api.NewRouter(segHandler, limiter, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/rfv/analyze")
	fmt.Println("  GET  /api/rfv/latest")
	fmt.Println("  GET  /api/rfv/actions")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
