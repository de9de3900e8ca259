package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/mysql"
	"github.com/facegate/facegate/internal/database/postgres"
	"github.com/facegate/facegate/internal/embedder"
	"github.com/facegate/facegate/internal/facematch"
	"github.com/facegate/facegate/internal/storage"
	"github.com/facegate/facegate/internal/token"
	"github.com/facegate/facegate/internal/web"
	"github.com/facegate/facegate/internal/weights"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Provision model weights and start the API server",
	Long: `Start the Facegate API server.
Before listening, serve prepares the runtime environment: it verifies the
persistent volume, syncs model weights onto it, points the engine cache at
the volume, applies the source patch when configured, runs database
migrations and builds the in-memory face index.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("skip-weights", false, "Skip model weight provisioning (weights must already be in place)")
}

// loadWeightsManifest returns the external manifest when configured, the
// embedded one otherwise.
func loadWeightsManifest(cfg *config.Config) (*weights.Manifest, error) {
	if cfg.Weights.ManifestPath == "" {
		return weights.DefaultManifest(), nil
	}
	return weights.LoadManifest(cfg.Weights.ManifestPath)
}

// prepareVolume runs the provisioning sequence: volume probe, weight sync,
// cache symlink and the optional source patch.
func prepareVolume(ctx context.Context, cfg *config.Config, skipWeights bool) error {
	if err := weights.EnsureVolume(cfg.Volume.Path); err != nil {
		return fmt.Errorf("volume not usable: %w", err)
	}

	if !skipWeights {
		manifest, err := loadWeightsManifest(cfg)
		if err != nil {
			return fmt.Errorf("loading weights manifest: %w", err)
		}

		prov := weights.NewProvisioner(manifest, cfg.Volume.WeightsDir(), cfg.Weights.SeedDir, true)
		if err := prov.Sync(ctx); err != nil {
			return fmt.Errorf("syncing model weights: %w", err)
		}
		slog.Info("model weights in place", "dir", cfg.Volume.WeightsDir())
	}

	if err := weights.LinkCache(cfg.EngineCacheDir(), cfg.Volume.ModelsDir()); err != nil {
		return fmt.Errorf("linking engine cache: %w", err)
	}

	patched, err := weights.ApplyPatch(cfg.Weights.Patch.File, cfg.Weights.Patch.OldURL, cfg.Weights.Patch.NewURL)
	if err != nil {
		return fmt.Errorf("patching engine source: %w", err)
	}
	if patched {
		slog.Info("engine source patched", "file", cfg.Weights.Patch.File)
	}

	return nil
}

// openStore opens the configured database backend and runs migrations.
func openStore(cfg *config.Config) (database.Store, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	switch cfg.Database.Driver {
	case "postgres":
		slog.Info("connecting to PostgreSQL")
		return postgres.Initialize(&cfg.Database)
	case "mysql":
		slog.Info("connecting to MySQL")
		return mysql.Initialize(&cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// buildIndex loads all users and builds the in-memory face index.
func buildIndex(ctx context.Context, store database.Store) (*database.UserIndex, error) {
	users, err := store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users for index: %w", err)
	}

	index := database.NewUserIndex()
	if err := index.Build(users); err != nil {
		return nil, fmt.Errorf("building face index: %w", err)
	}
	slog.Info("face index built", "users", index.Count())
	return index, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	if err := prepareVolume(ctx, cfg, mustGetBool(cmd, "skip-weights")); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	index, err := buildIndex(ctx, store)
	if err != nil {
		return err
	}

	server := web.NewServer(cfg, web.Dependencies{
		Store:   store,
		Index:   index,
		Matcher: facematch.NewMatcher(index, cfg.Match.Threshold),
		Engine:  embedder.NewClient(cfg.Engine.URL),
		Images:  storage.NewImageStore(cfg.Volume.Path),
		Tokens:  token.NewStore(0),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
	}()

	slog.Info("facegate ready", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
