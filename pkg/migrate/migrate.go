package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/belldesk-backend/pkg/logger"
)

// DefaultDir is where create and validate look for migration files.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var bundled embed.FS

// Bundled returns the desk schema compiled into the binary.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// source picks the on-disk dir when given, the bundled schema otherwise.
func source(dir string) fs.FS {
	if dir == "" {
		return Bundled()
	}
	return os.DirFS(dir)
}

func newProvider(db *sql.DB, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	// goose files are Postgres SQL; sqlite desks are built from the models.
	p, err := goose.NewProvider(goose.DialectPostgres, db, source(dir))
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Run executes up, down or status against db and logs each step.
func Run(ctx context.Context, logg *logger.Logger, db *sql.DB, dir, command string) error {
	p, err := newProvider(db, dir)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		logResults(ctx, logg, results...)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		if len(results) == 0 {
			logg.Info(ctx, "schema already current")
		}
	case "down":
		result, err := p.Down(ctx)
		logResults(ctx, logg, result)
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			fields := map[string]any{"version": st.Source.Version, "file": st.Source.Path, "state": string(st.State)}
			if !st.AppliedAt.IsZero() {
				fields["applied_at"] = st.AppliedAt
			}
			logg.Info(logg.WithFields(ctx, fields), "migration status")
		}
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until target is the newest applied version.
func MigrateToVersion(ctx context.Context, logg *logger.Logger, db *sql.DB, dir, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || len(target) != len(versionLayout) {
		return fmt.Errorf("invalid version %q (expected %s)", target, "YYYYMMDDHHMMSS")
	}

	p, err := newProvider(db, dir)
	if err != nil {
		return err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current < version:
		results, err = p.UpTo(ctx, version)
	case current > version:
		results, err = p.DownTo(ctx, version)
	}
	logResults(ctx, logg, results...)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, version, err)
	}
	return nil
}

func logResults(ctx context.Context, logg *logger.Logger, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		logCtx := logg.WithFields(ctx, map[string]any{
			"version":   r.Source.Version,
			"file":      r.Source.Path,
			"direction": r.Direction,
			"took_ms":   r.Duration.Milliseconds(),
		})
		if r.Error != nil {
			logg.Error(logCtx, "migration failed", r.Error)
			continue
		}
		logg.Info(logCtx, "migration applied")
	}
}
