package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
	"caseflow.org/internal/caseflow"
	"caseflow.org/internal/httpapi"
	"caseflow.org/internal/obs"
	"caseflow.org/internal/store/badgerdb"
)

var version = "0.3.0"

func main() {
	_ = godotenv.Load()
	obs.Init()

	addr := envOr("CASEFLOW_ADDR", ":8080")
	dataDir := envOr("CASEFLOW_DATA_DIR", "./data")
	secret := os.Getenv("CASEFLOW_SESSION_SECRET")
	if secret == "" {
		log.Fatal("CASEFLOW_SESSION_SECRET is required")
	}

	db, err := badgerdb.Open(badgerdb.DefaultConfig(dataDir))
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	recorder, err := audit.NewRecorder(db.Audit(), nil)
	if err != nil {
		log.Fatalf("audit recorder: %v", err)
	}

	authOpts := []auth.ServiceOption{
		auth.WithAssignmentChecker(db.Assignments()),
	}
	// Env wins over the stored setting; both fall back to the default TTL.
	ttlRaw := os.Getenv("CASEFLOW_SESSION_TTL")
	if ttlRaw == "" {
		ttlRaw, _ = db.Setting(context.Background(), "session_ttl")
	}
	if ttlRaw != "" {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil {
			log.Fatalf("parse session ttl %q: %v", ttlRaw, err)
		}
		authOpts = append(authOpts, auth.WithSessionTTL(ttl))
	}
	gate, err := auth.NewService(db.Users(), db.Sessions(), recorder, []byte(secret), authOpts...)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	caseOpts := []caseflow.ServiceOption{}
	if prefix, err := db.Setting(context.Background(), "case_number_prefix"); err == nil {
		caseOpts = append(caseOpts, caseflow.WithNumberPrefix(prefix))
	}
	cases, err := caseflow.NewService(db.Cases(), db.Media(), db.Drafts(), db.Users(), recorder, caseOpts...)
	if err != nil {
		log.Fatalf("caseflow service: %v", err)
	}

	api := httpapi.New(gate, cases, recorder, version)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting caseflow-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Badger value log grows without periodic GC.
	gcStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = db.RunValueLogGC()
			case <-gcStop:
				return
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	close(gcStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
