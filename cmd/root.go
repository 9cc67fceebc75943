package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"userapi/internal/config"
	"userapi/internal/logging"
)

var (
	configFile string
	profile    string

	loadEnv = godotenv.Load
)

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "userapi",
	Short: "HTTP service managing user records",
	Long: `userapi serves create, read, update and delete operations on user
records stored in a relational database.

	userapi             start the server
	userapi serve       start the server
	userapi migrate up  apply database migrations
`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: config.yaml in . or ./config)")
	rootCmd.PersistentFlags().StringVar(&profile, "env", "", "database profile (default: APP_ENV, NODE_ENV or development)")
}

// loadConfig reads .env, then the configuration, and installs the logger.
func loadConfig() (config.Config, error) {
	envErr := loadEnv()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", envErr)
	}

	cfg, err := config.Load(config.Options{File: configFile, Profile: profile})
	if err != nil {
		return config.Config{}, err
	}
	logging.Setup(cfg.Log)
	if envErr != nil {
		log.Debug().Msg("no .env file found")
	}
	return cfg, nil
}
