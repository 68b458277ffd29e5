package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sagarc03/r2gate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "r2gate",
	Short:   "Session-gated HTTP gateway for an R2 bucket",
	Long: `r2gate serves a small REST API for listing, uploading, downloading and
deleting files under a fixed prefix of a Cloudflare R2 (or any S3-compatible)
bucket. Access is gated by a cookie session issued against a users file of
bcrypt-hashed tokens.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("users-file", "", "users file, JSON or YAML (default: users.json, env: R2GATE_AUTH_USERS_FILE)")
	rootCmd.PersistentFlags().String("session-type", "", "session store: memory, redis, sqlite, postgres (default: memory)")
	rootCmd.PersistentFlags().String("session-dsn", "", "session database connection string")
	rootCmd.PersistentFlags().String("storage-type", "", "object store: s3, filesystem (default: s3)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem store directory (default: ./data)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads .env, loads the configuration and stores it on the
// command context for subcommands.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var files []string
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		files = append(files, configFile)
	}

	cfg, err := config.Load(files, cmd.Flags())
	if err != nil {
		return err
	}

	setupLogging(cfg)
	cmd.SetContext(config.WithContext(cmd.Context(), cfg))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
