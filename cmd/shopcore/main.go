package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkim-labs/shopcore/internal/api"
	"github.com/dkim-labs/shopcore/internal/catalog"
	"github.com/dkim-labs/shopcore/internal/order"
	"github.com/dkim-labs/shopcore/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const (
	defaultAddr   = ":8080"
	defaultDBPath = "shopcore.db"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("shopcore order service\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	log.SetOutput(os.Stderr)
	log.Printf("shopcore v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	dbPath := os.Getenv("SHOPCORE_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	addr := os.Getenv("SHOPCORE_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	workflow := order.NewWorkflow(store, logger)
	query := order.NewQuery(store)
	cat := catalog.NewService(store, logger)
	handler := api.NewHandler(workflow, query, cat, store, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.RequestLogger(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}
