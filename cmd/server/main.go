// TeamVault API Server
//
// Usage:
//
//	server            Start the HTTP server
//	server -migrate   Run database migrations and exit
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

	"github.com/teamvault/teamvault/internal/api"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/db"
	"github.com/teamvault/teamvault/internal/zk"
)

// zkCredentialDefID names the single ZK credential authority this server
// publishes. A deployment that needs more than one schema would key this by
// schema name instead.
const zkCredentialDefID = "default"

func main() {
	migrateOnly := flag.Bool("migrate", false, "Run migrations and exit")
	migrationsDir := flag.String("migrations-dir", "migrations", "Path to migrations directory")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load config from environment
	databaseURL := requireEnv("DATABASE_URL")
	jwtSecret := requireEnv("JWT_SECRET")
	listenAddr := getEnv("LISTEN_ADDR", ":8443")

	// Connect to database
	database, err := db.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(ctx, *migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete")

	if *migrateOnly {
		log.Println("Migration-only mode, exiting")
		return
	}

	// Initialize auth
	authSvc := auth.New(jwtSecret)

	// Initialize the ZK credential issuer and publish its key material so
	// other services can fetch it without holding the signing key itself.
	zkIssuer, err := zk.NewCredentialIssuer()
	if err != nil {
		log.Fatalf("Failed to generate ZK credential authority: %v", err)
	}
	if err := publishCredentialDefinition(ctx, database, zkIssuer); err != nil {
		log.Fatalf("Failed to publish ZK credential definition: %v", err)
	}
	log.Println("ZK credential authority ready")

	apiServer := api.NewServer(database, authSvc, api.NewZKHandlers(zkIssuer))

	// Create HTTP server
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("TeamVault API server starting on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutdown signal received, gracefully stopping...")

	cancel()

	// Graceful HTTP shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Fprintf(os.Stderr, "Required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return val
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func publishCredentialDefinition(ctx context.Context, database *db.DB, issuer *zk.CredentialIssuer) error {
	pk := issuer.PublicKey()
	kcp := issuer.KeyCorrectnessProof()

	pkJSON, err := pk.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling ZK public key: %w", err)
	}
	kcpJSON, err := kcp.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling ZK key-correctness proof: %w", err)
	}

	_, err = database.UpsertCredentialDefinition(ctx, zkCredentialDefID, pk.Attrs, pkJSON, kcpJSON)
	return err
}
