// Command seed bootstraps a fresh data directory: it creates the first
// super_admin account and, when asked, a small demo dataset. The service
// layer requires an authenticated session for user creation, so seeding
// writes through the stores directly.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/caseflow"
	"caseflow.org/internal/ids"
	"caseflow.org/internal/store/badgerdb"
)

func main() {
	_ = godotenv.Load()

	dataDir := envOr("CASEFLOW_DATA_DIR", "./data")
	adminUser := envOr("CASEFLOW_SEED_ADMIN_USERNAME", "admin")
	adminPass := os.Getenv("CASEFLOW_SEED_ADMIN_PASSWORD")
	if adminPass == "" {
		log.Fatal("CASEFLOW_SEED_ADMIN_PASSWORD is required")
	}

	db, err := badgerdb.Open(badgerdb.DefaultConfig(dataDir))
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	users := db.Users()

	admin, err := ensureUser(ctx, users, adminUser, adminPass, auth.RoleSuperAdmin, "Administrator")
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("super_admin %q ready (id %s)", admin.Username, admin.ID)

	if _, err := db.Setting(ctx, "case_number_prefix"); errors.Is(err, badgerdb.ErrSettingNotFound) {
		if err := db.PutSetting(ctx, "case_number_prefix", "ACV"); err != nil {
			log.Fatalf("seed settings: %v", err)
		}
	}

	if os.Getenv("CASEFLOW_SEED_DEMO") != "1" {
		return
	}

	inspector, err := ensureUser(ctx, users, "inspector1", adminPass, auth.RoleInspector, "Demo Inspector")
	if err != nil {
		log.Fatalf("seed inspector: %v", err)
	}

	now := time.Now().UTC()
	demo := &caseflow.Case{
		ID:           ids.New(),
		CaseNumber:   ids.CaseNumber("ACV", now),
		Status:       caseflow.StatusNew,
		InspectorID:  inspector.ID,
		HospitalID:   "HOSP-001",
		AccidentDate: now.AddDate(0, 0, -1),
		Deadline:     now.AddDate(0, 0, 14),
		Description:  "Demo accident case",
		CreatedByID:  admin.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Cases().Create(ctx, demo); err != nil {
		if errors.Is(err, caseflow.ErrAlreadyExists) {
			log.Printf("demo case already present")
			return
		}
		log.Fatalf("seed case: %v", err)
	}
	log.Printf("demo case %s created for inspector %q", demo.CaseNumber, inspector.Username)
}

func ensureUser(ctx context.Context, users auth.UserStore, username, password string, role auth.Role, fullName string) (*auth.User, error) {
	if u, err := users.FindByUsername(ctx, username); err == nil {
		return u, nil
	} else if !errors.Is(err, auth.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &auth.User{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
