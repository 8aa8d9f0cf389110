package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"visualexpr/internal/config"
	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/domain/repositories"
	exprRepo "visualexpr/internal/domain/repositories/expression"
	exprSvc "visualexpr/internal/domain/services/expression"
	"visualexpr/internal/repository/postgres"
	postgresExpr "visualexpr/internal/repository/postgres/expression"
	"visualexpr/internal/repository/sqlite"
	serviceExpr "visualexpr/internal/service/expression"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// fixture is one demo workspace.
type fixture struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Theme      string `yaml:"theme"`
	Locale     string `yaml:"locale"`
}

type fixtureFile struct {
	Workspaces []fixture `yaml:"workspaces"`
}

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop the workspace table before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed workspaces")
	clearData := flag.Bool("clear-data", false, "Delete the owner's workspaces before seeding")
	fixturesPath := flag.String("fixtures", "", "YAML fixture file (defaults to the built-in demo workspaces)")
	owner := flag.String("owner", "", "Owner of the seeded workspaces (defaults to DEFAULT_OWNER)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if *owner == "" {
		*owner = cfg.DefaultOwner
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	fixtures, err := loadFixtures(*fixturesPath)
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	ctx := context.Background()

	var (
		repo      exprRepo.WorkspaceRepository
		txManager repositories.TransactionManager
	)

	switch {
	case cfg.DatabaseURL != "":
		log.Printf("Seeding postgres (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if *dropTables {
			log.Println("Dropping workspace table...")
			if err := postgres.DropSchema(ctx, pool, tables); err != nil {
				log.Fatalf("Failed to drop tables: %v", err)
			}
		}

		log.Println("Ensuring database schema is up to date...")
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			log.Fatalf("Failed to run schema: %v", err)
		}
		if *schemaOnly {
			log.Println("Schema setup complete (schema-only mode)")
			return
		}

		repo = postgresExpr.NewWorkspaceRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		txManager = postgres.NewTransactionManager(pool)

	case cfg.SQLitePath != "":
		log.Printf("Seeding sqlite database %s", cfg.SQLitePath)
		if *dropTables {
			log.Fatalf("--drop-tables is only supported for postgres; delete %s instead", cfg.SQLitePath)
		}
		// Open applies the schema.
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if *schemaOnly {
			log.Println("Schema setup complete (schema-only mode)")
			return
		}

		repo = sqlite.NewWorkspaceRepository(db, logger)
		txManager = sqlite.NewTransactionManager(db, logger)

	default:
		log.Fatalf("Nothing to seed: set DATABASE_URL or SQLITE_PATH")
	}

	catalog, err := serviceExpr.NewCatalog(cfg.PaletteFile, logger)
	if err != nil {
		log.Fatalf("Failed to load palette catalog: %v", err)
	}
	hubs := serviceExpr.NewHubRegistry(time.Minute, time.Minute, logger)
	svc := serviceExpr.NewWorkspaceService(repo, catalog, serviceExpr.NewEngineLoader(cfg.ParseCacheSize), hubs, len(fixtures), logger)

	if *clearData {
		log.Printf("Clearing workspaces of owner %s...", *owner)
		if err := clearWorkspaces(ctx, svc, *owner); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	existing, err := svc.ListWorkspaces(ctx, *owner)
	if err != nil {
		log.Fatalf("Failed to list workspaces: %v", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, ws := range existing {
		taken[ws.Name] = true
	}

	// All fixtures land in one transaction.
	created := 0
	err = txManager.ExecTx(ctx, func(ctx context.Context) error {
		for i, f := range fixtures {
			if taken[f.Name] {
				log.Printf("Skipping %d/%d: %q already exists", i+1, len(fixtures), f.Name)
				continue
			}
			ws, err := svc.CreateWorkspace(ctx, &exprSvc.CreateWorkspaceRequest{
				OwnerID: *owner,
				Name:    f.Name,
				Settings: models.Settings{
					Expression: f.Expression,
					Theme:      f.Theme,
					Locale:     f.Locale,
				},
			})
			if err != nil {
				return fmt.Errorf("create %q: %w", f.Name, err)
			}
			created++
			log.Printf("Created workspace %d/%d: %s (ID: %s, expression: %q)",
				i+1, len(fixtures), ws.Name, ws.ID, ws.Settings.Expression)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeding complete: %d created, %d skipped", created, len(fixtures)-created)
}

// loadFixtures reads path, or the embedded fixtures when path is empty.
func loadFixtures(path string) ([]fixture, error) {
	data := defaultFixtures
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, f := range file.Workspaces {
		if f.Name == "" {
			return nil, fmt.Errorf("fixture %d: name is required", i)
		}
	}
	return file.Workspaces, nil
}

func clearWorkspaces(ctx context.Context, svc exprSvc.WorkspaceService, owner string) error {
	list, err := svc.ListWorkspaces(ctx, owner)
	if err != nil {
		return err
	}
	for _, ws := range list {
		if err := svc.DeleteWorkspace(ctx, ws.ID, owner); err != nil {
			return fmt.Errorf("delete %q: %w", ws.Name, err)
		}
	}
	log.Printf("Deleted %d workspaces", len(list))
	return nil
}
