package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/weights"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Manage model weights on the persistent volume",
}

var weightsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download missing model weights to the volume",
	Long: `Sync model weights onto the persistent volume.
Weights already present with content are left untouched; a seed directory is
copied first so pre-downloaded weights avoid network traffic. With --watch,
the command stays running and re-syncs whenever the external manifest file
changes.`,
	RunE: runWeightsSync,
}

var weightsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every weight file is present and non-empty",
	RunE:  runWeightsVerify,
}

var weightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the weight files of the active manifest",
	RunE:  runWeightsList,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.AddCommand(weightsSyncCmd)
	weightsCmd.AddCommand(weightsVerifyCmd)
	weightsCmd.AddCommand(weightsListCmd)

	weightsSyncCmd.Flags().Bool("watch", false, "Keep running and re-sync when the manifest file changes")
}

func newProvisioner(cfg *config.Config) (*weights.Provisioner, error) {
	manifest, err := loadWeightsManifest(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading weights manifest: %w", err)
	}
	return weights.NewProvisioner(manifest, cfg.Volume.WeightsDir(), cfg.Weights.SeedDir, true), nil
}

func runWeightsSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if err := weights.EnsureVolume(cfg.Volume.Path); err != nil {
		return fmt.Errorf("volume not usable: %w", err)
	}

	prov, err := newProvisioner(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := prov.Sync(ctx); err != nil {
		return fmt.Errorf("syncing model weights: %w", err)
	}
	fmt.Printf("Weights synced to %s\n", cfg.Volume.WeightsDir())

	if !mustGetBool(cmd, "watch") {
		return nil
	}

	if cfg.Weights.ManifestPath == "" {
		return errors.New("--watch requires WEIGHTS_MANIFEST to point at an external manifest file")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", cfg.Weights.ManifestPath)
	return weights.Watch(watchCtx, cfg.Weights.ManifestPath, func(m *weights.Manifest) {
		p := weights.NewProvisioner(m, cfg.Volume.WeightsDir(), cfg.Weights.SeedDir, true)
		if err := p.Sync(watchCtx); err != nil {
			fmt.Printf("Warning: re-sync failed: %v\n", err)
			return
		}
		fmt.Println("Weights re-synced after manifest change")
	})
}

func runWeightsVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	prov, err := newProvisioner(cfg)
	if err != nil {
		return err
	}

	missing := prov.Missing()
	if len(missing) == 0 {
		fmt.Println("All weight files present")
		return nil
	}

	fmt.Printf("%d weight file(s) missing or empty:\n", len(missing))
	for _, w := range missing {
		fmt.Printf("  %s (%s)\n", w.Name, w.Path)
	}
	return fmt.Errorf("weights verification failed")
}

func runWeightsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	manifest, err := loadWeightsManifest(cfg)
	if err != nil {
		return fmt.Errorf("loading weights manifest: %w", err)
	}

	for _, w := range manifest.Models {
		fmt.Printf("%-24s %s\n", w.Name, w.Path)
		fmt.Printf("%-24s   %s\n", "", w.DownloadURL())
	}
	return nil
}
