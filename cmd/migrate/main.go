package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/infrastructure/config"
	"github.com/erp/ordersource/internal/infrastructure/logger"
	"github.com/erp/ordersource/internal/infrastructure/migration"
	"github.com/erp/ordersource/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	migrationsPath = resolveMigrationsPath(migrationsPath)
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to get absolute path", zap.Error(err))
	}
	migrationsPath = absPath

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath),
	)

	// Commands that only touch the migrations directory
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(migrationsPath, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created successfully",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		migrations, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(migrations) == 0 {
			log.Info("No migrations found")
			return
		}
		log.Info("Available migrations", zap.Int("count", len(migrations)))
		for _, m := range migrations {
			fmt.Println("  -", m.BaseName())
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Commands that manage integration data through the repositories
	switch command {
	case "scope":
		if len(args) < 2 {
			log.Fatal("Scope id required. Usage: migrate scope <scope_id> [name]")
		}
		name := args[1]
		if len(args) > 2 {
			name = args[2]
		}
		withDatabase(cfg, log, func(db *persistence.Database) error {
			return persistence.NewGormCredentialStore(db.DB).RegisterScope(ctx, args[1], name)
		})
		log.Info("Scope registered", zap.String("scope_id", args[1]))
		return

	case "legacy-user":
		if len(args) < 3 {
			log.Fatal("Usage: migrate legacy-user <username> <password>")
		}
		hash, err := integration.HashPassword(args[2])
		if err != nil {
			log.Fatal("Failed to hash password", zap.Error(err))
		}
		withDatabase(cfg, log, func(db *persistence.Database) error {
			return persistence.NewGormLegacyUserStore(db.DB).Create(ctx, &integration.LegacyUser{
				Username:     args[1],
				PasswordHash: hash,
				Active:       true,
			})
		})
		log.Info("Legacy user created", zap.String("username", args[1]))
		return
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}

	case "status":
		status, err := m.Status()
		if err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		log.Info("Migration status",
			zap.Uint("current", status.Current),
			zap.Uint("latest", status.Latest),
			zap.Bool("dirty", status.Dirty),
			zap.Int("pending", len(status.Pending)),
		)
		for _, p := range status.Pending {
			fmt.Println("  pending -", p.BaseName())
		}

	case "check":
		if err := m.CheckCurrent(); err != nil {
			if errors.Is(err, migration.ErrSchemaOutdated) || errors.Is(err, migration.ErrSchemaDirty) {
				log.Error("Schema is not current", zap.Error(err))
				os.Exit(2)
			}
			log.Fatal("Failed to check schema", zap.Error(err))
		}
		log.Info("Schema is current")

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// resolveMigrationsPath finds the migrations directory next to the working
// directory or the executable when no path was given
func resolveMigrationsPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func withDatabase(cfg *config.Config, log *zap.Logger, fn func(db *persistence.Database) error) {
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := fn(db); err != nil {
		log.Fatal("Command failed", zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`Order Source Gateway Database Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                          Apply all pending migrations
  down                        Roll back all migrations
  step <n>                    Apply n migrations (positive=up, negative=down)
  version                     Show current migration version
  status                      Show applied and pending migrations
  check                       Exit non-zero when the schema is dirty or behind
  force <version>             Force set migration version (use with caution)
  create <name> [desc]        Create a new migration file pair
  list                        List available migrations
  scope <scope_id> [name]     Register or reactivate an integration scope
  legacy-user <user> <pass>   Create an account for the legacy XML endpoint

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  OSG_DATABASE_HOST, OSG_DATABASE_PORT, OSG_DATABASE_USER,
  OSG_DATABASE_PASSWORD, OSG_DATABASE_DBNAME, OSG_DATABASE_SSLMODE

Examples:
  # Apply all pending migrations
  migrate up

  # Register a store and give it an API key via the admin endpoint
  migrate scope default "Default Store"

  # Create a new migration
  migrate create add_carrier_table "Create carrier lookup table"`)
}
