package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/lintgate/cmd/analyse"
	"github.com/scan-io-git/lintgate/cmd/check"
	"github.com/scan-io-git/lintgate/cmd/version"
	"github.com/scan-io-git/lintgate/internal/config"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "lintgate [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Lintgate runs static-analysis engines over a build and gates it on their findings.",
		Long: `Lintgate orchestrates a rule-based lint engine and a copy/paste detector across one module
	or a whole multi-module build, reconciles their findings into deterministic reports
	and fails the build when violation thresholds are exceeded.
	`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(analyse.AnalyseCmd)
	rootCmd.AddCommand(check.CheckCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	err := rootCmd.Execute()
	if err == nil {
		return lgerrors.ExitOK
	}

	fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
	var cmdErr *lgerrors.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return lgerrors.ExitToolingFailure
}

func initConfig() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	var err error
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("initializing config file function is crashed: %w", err)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		return err
	}

	version.Init(AppConfig)
	analyse.Init(AppConfig)
	check.Init(AppConfig)
	return nil
}
