package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/addon-repository/internal/config"
	"github.com/oshokin/addon-repository/internal/logger"
	"github.com/oshokin/addon-repository/internal/service/generator"
	"github.com/oshokin/addon-repository/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// logLevel is the minimum level of printed messages.
	logLevel string

	// Overrides of the settings file. Applied only when the flag is set.
	addonsFile  string
	outputDir   string
	apiURL      string
	mirror      bool
	strict      bool
	concurrency int
	timeout     time.Duration

	errSettingsExist = errors.New("settings file already exists")

	// rootCmd represents the base command for generating the repository.
	rootCmd = &cobra.Command{
		Use:   "repo-generator",
		Short: "Generate the addon repository from the latest releases",
		Long: "Resolve the latest release of every addon in the listing and publish manifest.json " +
			"and, in mirror mode, the Kodi repository files into the output directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelName(logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			_, err = generator.Run(ctx, &generator.Options{Config: cfg})

			return err
		},
	}

	// initConfigCmd writes the default settings file.
	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Write a settings file with default values",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%w: %s", errSettingsExist, configPath)
			}

			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}

			logger.Infof(context.Background(), "Settings written to %s", configPath)

			return nil
		},
	}
)

// Execute runs the repo-generator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), err)
		logger.Sync()
		os.Exit(1)
	}
}

// loadSettings reads the settings file and applies environment and flag overrides.
// The default settings file is optional, an explicitly named one is not.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	load := config.LoadOptional
	if cmd.Flags().Changed("config") {
		load = config.Load
	}

	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}

	config.ApplyEnvironment(cfg)

	flags := cmd.Flags()

	if flags.Changed("addons") {
		cfg.AddonsFile = addonsFile
	}

	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}

	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}

	if flags.Changed("mirror") {
		cfg.Mirror = mirror
	}

	if flags.Changed("strict") {
		cfg.Strict = strict
	}

	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}

	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&addonsFile, "addons", config.DefaultAddonsFilename, "path to the addon listing")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "directory receiving the generated repository")
	rootCmd.Flags().StringVar(&apiURL, "api-url", config.DefaultAPIURL, "base URL of the release API")
	rootCmd.Flags().BoolVar(&mirror, "mirror", true, "download assets and produce the Kodi repository files")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "fail the run when any addon cannot be resolved")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", config.DefaultConcurrency, "number of addons resolved in parallel")
	rootCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "timeout of a single release API request")

	rootCmd.AddCommand(initConfigCmd)
}
