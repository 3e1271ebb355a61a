package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rsned/cultivation-server/internal/cultivation/db"
	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	cultsync "github.com/rsned/cultivation-server/internal/cultivation/sync"
	"github.com/rsned/cultivation-server/internal/logging"
)

const (
	defaultDBPath = "data/cultivation/cultivation.db"
	envDBPath     = "CULTIVATION_DB"
)

var globalFlags struct {
	dbPath    string
	verbose   bool
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "cultivation-server",
	Short: "Consistency calculator for cultivation progression settings",
	Long: "Models a staged cultivation ladder, computes resource cost and lifespan per\n" +
		"breakthrough, and flags combinations of parameters that break the setting.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logging.CheckFormat(globalFlags.logFormat); err != nil {
			return err
		}
		logging.Init(logging.Level(globalFlags.verbose), globalFlags.logFormat, cmd.ErrOrStderr())

		if !cmd.Flags().Changed("db") {
			if env := os.Getenv(envDBPath); env != "" {
				globalFlags.dbPath = env
			}
		}
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&globalFlags.dbPath, "db", defaultDBPath, "Path to SQLite database (env "+envDBPath+")")
	f.BoolVar(&globalFlags.verbose, "verbose", false, "Enable verbose logging")
	f.StringVar(&globalFlags.logFormat, "log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(httpCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.Version = version
}

// app bundles the opened database with the services built on it.
type app struct {
	db     *db.DB
	engine *engine.Engine
	syncer *cultsync.Syncer
}

// openApp opens the database, seeds the built-in presets and wires the engine.
func openApp(ctx context.Context) (*app, error) {
	path := globalFlags.dbPath
	if path != db.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	database, err := db.OpenAndInit(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	eng := engine.New(database)
	if err := eng.SeedBuiltinPresets(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("seeding presets: %w", err)
	}

	logging.New("cli").Debug("database ready", "db", path)
	return &app{
		db:     database,
		engine: eng,
		syncer: cultsync.NewSyncer(database, eng),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
