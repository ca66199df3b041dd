/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the pricing engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: pricing.db)
           Use ":memory:" for an in-memory database
  -seed    Load the default tenure catalog on startup if the catalog
           is empty

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/pricing.db"

  # Run with in-memory database and seeded catalog
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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

	"github.com/warp/pricing-engine/api"
	"github.com/warp/pricing-engine/factory"
	"github.com/warp/pricing-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "pricing.db", "SQLite database path")
	seed := flag.Bool("seed", false, "load default tenure catalog if empty")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed master data if requested
	if *seed {
		existing, err := store.ListTenures(context.Background())
		if err != nil {
			log.Fatalf("Failed to read tenure catalog: %v", err)
		}
		if len(existing) == 0 {
			if err := seedCatalog(store); err != nil {
				log.Printf("Warning: Failed to seed catalog: %v", err)
			} else {
				log.Println("Seeded default tenure catalog")
			}
		}
	}

	// Initialize handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

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
		log.Printf("Pricing engine listening on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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

func seedCatalog(store *sqlite.Store) error {
	catalog, err := factory.NewPlanFactory().ParseCatalog(factory.DefaultCatalogJSON())
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, entry := range catalog.List() {
		if err := store.SaveTenure(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
