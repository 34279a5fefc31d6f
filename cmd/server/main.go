/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the insurance lifecycle engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Parse rule configuration (statutory defaults when no file given)
  4. Wire the engine and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: insurance.db)
           Use ":memory:" for an in-memory database
  -rules   Path to a JSON rule-configuration file (optional; statutory
           defaults apply when omitted)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/insurance.db"

  # Run with in-memory database and custom thresholds
  ./server -db=":memory:" -rules="./config/rules.json"

SEE ALSO:
  - api/server.go: Router configuration
  - factory/rules.go: Rule configuration parsing
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/insurance-engine/api"
	"github.com/warp/insurance-engine/factory"
	"github.com/warp/insurance-engine/insurance"
	"github.com/warp/insurance-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "insurance.db", "SQLite database path")
	rulesPath := flag.String("rules", "", "JSON rule-configuration file (optional)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Rule configuration: statutory defaults, optionally overridden from file
	rules := insurance.DefaultRuleConfig()
	if *rulesPath != "" {
		data, err := os.ReadFile(*rulesPath)
		if err != nil {
			log.Fatalf("Failed to read rules file: %v", err)
		}
		if rules, err = factory.ParseRuleConfig(data); err != nil {
			log.Fatalf("Failed to parse rules file: %v", err)
		}
		log.Printf("Loaded rule configuration from %s", *rulesPath)
	}

	// Wire the engine: one shared summary cache, injected explicitly
	engine := insurance.NewEngine(insurance.Stores{
		Workers:     store,
		WorkRecords: store,
		Enrollments: store,
		Overrides:   store,
		Events:      store,
	}, insurance.NewMemoryCache(), rules)

	// Create router
	router := api.NewRouter(api.NewHandler(engine))

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
