package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
	dialect     = "postgres"
)

// Migrations holds the SQL migrations compiled into the binary so containers
// can migrate without the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Source names where goose reads migration files from. A nil FS means the
// local filesystem.
type Source struct {
	FS  fs.FS
	Dir string
}

func DiskSource(dir string) Source { return Source{Dir: dir} }

func EmbeddedSource() Source { return Source{FS: Migrations, Dir: embeddedDir} }

// Validate checks the files behind the source without touching a database.
func (s Source) Validate() error {
	if s.FS == nil {
		return ValidateDir(s.Dir)
	}
	return ValidateFS(s.FS, s.Dir)
}

// with points goose at the source for the duration of fn. goose keeps the
// base FS and dialect as package globals, so callers must not run two
// sources concurrently.
func (s Source) with(fn func() error) error {
	if s.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if s.FS != nil {
		goose.SetBaseFS(s.FS)
		defer goose.SetBaseFS(nil)
	}
	return fn()
}

// Run executes a goose command (up, down, status, redo) against db.
func (s Source) Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	return s.with(func() error {
		if err := goose.RunContext(ctx, command, db, s.Dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down until it sits at target, a
// YYYYMMDDHHMMSS version.
func (s Source) MigrateTo(ctx context.Context, db *sql.DB, target string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	return s.with(func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < version:
			err = goose.UpToContext(ctx, db, s.Dir, version)
		case current > version:
			err = goose.DownToContext(ctx, db, s.Dir, version)
		}
		if err != nil {
			return fmt.Errorf("goose migrate %d -> %d: %w", current, version, err)
		}
		return nil
	})
}

// RunEmbedded executes a goose command against the migrations compiled into
// the binary.
func RunEmbedded(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return EmbeddedSource().Run(ctx, db, command, args...)
}
