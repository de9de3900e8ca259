package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "facegate",
	Short: "Face recognition access service",
	Long: `Facegate wraps a face recognition engine into a deployable access
service: it provisions the engine's model weights onto a persistent volume,
keeps the engine cache pointed at that volume, and serves an HTTP API for
enrolling users and recognizing faces at the door.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	slog.SetDefault(logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")))
}
