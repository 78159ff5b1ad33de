package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Harshitk-cp/adaptplan/internal/bundle"
	"github.com/Harshitk-cp/adaptplan/internal/config"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/Harshitk-cp/adaptplan/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOut string

var importCmd = &cobra.Command{
	Use:   "import <bundle>",
	Short: "Store a bundle in the planner database",
	Long: `Validate a bundle and store it as a new model. DATABASE_URL is read from
the environment or the .env file; pending migrations are applied first.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <model-id>",
	Short: "Write a stored model back out as a bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (.yaml, .yml or .json); stdout as YAML when empty")
	rootCmd.AddCommand(importCmd, exportCmd)
}

// withModels opens the database and hands a model service to fn.
func withModels(ctx context.Context, logger *zap.Logger, fn func(*service.ModelService) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool, config.MigrationsPath(), logger); err != nil {
		return err
	}

	svc := service.NewModelService(
		store.NewModelStore(pool),
		store.NewReferenceStore(pool),
		store.NewCurveStore(pool),
		logger,
	)
	return fn(svc)
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	b, err := bundle.Load(args[0])
	if err != nil {
		return err
	}
	def := b.Definition()

	return withModels(cmd.Context(), logger, func(svc *service.ModelService) error {
		if err := svc.Create(cmd.Context(), def); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), def.Model.ID)
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid model id %q", args[0])
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	return withModels(cmd.Context(), logger, func(svc *service.ModelService) error {
		def, err := svc.Load(cmd.Context(), id)
		if err != nil {
			return err
		}
		b := bundle.FromDefinition(def)
		if exportOut == "" {
			return b.Encode(os.Stdout, bundle.FormatYAML)
		}
		return b.Save(exportOut)
	})
}
