package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/zedmarket-backend/pkg/config"
	"github.com/angelmondragon/zedmarket-backend/pkg/db"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|redo|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary instead of -dir")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	fatalIf(context.Background(), logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      *cmd,
		"dir":      *dir,
		"embedded": *embedded,
	})

	source := migrate.DiskSource(*dir)
	if *embedded {
		source = migrate.EmbeddedSource()
	}

	switch *cmd {
	case "create":
		if *embedded {
			usage("create writes to -dir and cannot be combined with -embedded")
		}
		if *name == "" {
			usage("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		fatalIf(ctx, logg, "create migration", err)
		fmt.Println("created migration:", path)
		return
	case "validate":
		fatalIf(ctx, logg, "validate migrations", source.Validate())
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	fatalIf(ctx, logg, "connect database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	fatalIf(ctx, logg, "open sql handle", err)

	fatalIf(ctx, logg, "goose "+*cmd, run(ctx, sqlDB, source, *cmd, *version))
	logg.Info(ctx, "migration command complete")
}

func run(ctx context.Context, sqlDB *sql.DB, source migrate.Source, cmd, version string) error {
	switch cmd {
	case "up", "down", "status", "redo":
		return source.Run(ctx, sqlDB, cmd)
	case "version":
		if version == "" {
			usage("missing -version for version command")
		}
		return source.MigrateTo(ctx, sqlDB, version)
	}
	usage("unknown -cmd value: " + cmd)
	return nil
}

func usage(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	flag.Usage()
	os.Exit(2)
}

func fatalIf(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step+" failed", err)
	os.Exit(1)
}
