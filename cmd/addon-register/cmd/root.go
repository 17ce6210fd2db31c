package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/addon-repository/internal/config"
	"github.com/oshokin/addon-repository/internal/logger"
	"github.com/oshokin/addon-repository/internal/service/register"
	"github.com/oshokin/addon-repository/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// logLevel is the minimum level of printed messages.
	logLevel string
	// addonsFile is the listing the addon is registered into.
	addonsFile string
	// upstreamRepo is the owner/name the scaffolded trigger dispatches to.
	upstreamRepo string
	// remoteName is the git remote naming the addon repository.
	remoteName string

	// rootCmd represents the base command for registering an addon.
	rootCmd = &cobra.Command{
		Use:   "addon-register [addon-checkout]",
		Short: "Register an addon in the repository listing",
		Long: "Add the addon found in a local checkout to the repository listing and scaffold " +
			"the workflow that asks the repository to regenerate on every release.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelName(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			load := config.LoadOptional
			if cmd.Flags().Changed("config") {
				load = config.Load
			}

			cfg, err := load(configPath)
			if err != nil {
				return err
			}

			options := &register.Options{
				CheckoutDir:  args[0],
				AddonsFile:   cfg.AddonsFile,
				UpstreamRepo: cfg.UpstreamRepo,
				RemoteName:   remoteName,
			}

			if cmd.Flags().Changed("addons") {
				options.AddonsFile = addonsFile
			}

			if upstreamRepo != "" {
				options.UpstreamRepo = upstreamRepo
			}

			_, err = register.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the addon-register CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), err)
		logger.Sync()
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&addonsFile, "addons", config.DefaultAddonsFilename, "path to the addon listing")
	rootCmd.Flags().StringVarP(&upstreamRepo, "upstream", "u", "", "owner/name of the repository hosting the generator (defaults to upstream_repo from settings)")
	rootCmd.Flags().StringVar(&remoteName, "remote", register.DefaultRemoteName, "git remote naming the addon repository")
}
