package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"gottadoit/internal/config"
	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/repository/postgres"
	"gottadoit/internal/service/onboarding"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a flow")
	orgID := flag.String("org", "default", "Organization to seed the starter flow for")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	flowRepo := postgres.NewFlowRepository(repoConfig)
	flowService := onboarding.NewFlowService(flowRepo, logger)

	// Publish the starter flow
	log.Printf("📝 Publishing starter flow for org %q...", *orgID)
	doc, err := flowService.PublishFlow(ctx, *orgID, starterFlow(), nil)
	if err != nil {
		log.Fatalf("Failed to publish starter flow: %v", err)
	}

	log.Printf("✅ Starter flow published (version %d)", doc.Version)
	log.Println("🎉 Seeding complete!")
}

// starterFlow builds the default welcome flow new organizations start with.
// The entry card id matches the ENTRY_NODE_ID default so fresh users land on
// the first card.
func starterFlow() *models.Node {
	return &models.Node{
		ID:    "onboarding-root",
		Title: "Getting Started",
		Type:  models.NodeTypeFlow,
		Children: []*models.Node{
			{
				ID:    "welcome-1",
				Title: "Welcome",
				Type:  models.NodeTypeCard,
				Content: "Welcome aboard! This short flow walks you through " +
					"your first day.",
				Actions: []models.ActionDef{
					{ID: "go-handbook", Type: models.ActionGoto, Target: "handbook-1"},
				},
				Buttons: []models.ButtonDef{
					{Label: "Get started", ActionID: "go-handbook"},
				},
			},
			{
				ID:      "handbook-1",
				Title:   "Company Handbook",
				Type:    models.NodeTypeCard,
				Content: "Download the handbook and read the policies section.",
				Actions: []models.ActionDef{
					{ID: "dl-handbook", Type: models.ActionDownload, Target: "https://example.com/handbook.pdf"},
					{ID: "go-policies", Type: models.ActionGoto, Target: "policies-1"},
				},
				Buttons: []models.ButtonDef{
					{Label: "Download handbook", ActionID: "dl-handbook"},
					{Label: "Next", ActionID: "go-policies"},
				},
			},
			{
				ID:      "policies-1",
				Title:   "Acknowledge Policies",
				Type:    models.NodeTypeCard,
				Content: "Confirm you have read and accepted the company policies.",
				Actions: []models.ActionDef{
					{ID: "ack-policies", Type: models.ActionDB, Query: "record-policy-acknowledgement"},
					{ID: "go-done", Type: models.ActionGoto, Target: "done-1"},
				},
				Buttons: []models.ButtonDef{
					{Label: "I accept", ActionID: "ack-policies"},
					{Label: "Continue", ActionID: "go-done"},
				},
			},
			{
				ID:      "done-1",
				Title:   "All Set",
				Type:    models.NodeTypeCard,
				Content: "You're done. Welcome to the team!",
				Actions: []models.ActionDef{
					{ID: "finish", Type: models.ActionAcknowledge},
				},
				Buttons: []models.ButtonDef{
					{Label: "Finish", ActionID: "finish"},
				},
			},
		},
	}
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createFlows := `
		CREATE TABLE IF NOT EXISTS ` + tables.Flows + ` (
			org_id TEXT PRIMARY KEY,
			flow JSONB NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFlows); err != nil {
		return err
	}

	createUserStates := `
		CREATE TABLE IF NOT EXISTS ` + tables.UserStates + ` (
			org_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (org_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createUserStates); err != nil {
		return err
	}

	// Per-org state listing (admin views) touches user_id only
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `onboarding_user_states_org ON ` + tables.UserStates + `(org_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.UserStates,
		tables.Flows,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}
