package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/do4u-project/do4u/cmd/cli/chat"
	"github.com/do4u-project/do4u/cmd/cli/jobs"
	"github.com/do4u-project/do4u/cmd/cli/location"
	"github.com/do4u-project/do4u/cmd/cli/notifications"
	"github.com/do4u-project/do4u/pkg/config"
	"github.com/do4u-project/do4u/pkg/logger"
	"github.com/do4u-project/do4u/pkg/models"
)

var loggingMode = logger.LogModeDefault

func init() { //nolint:gochecknoinits
	if logtype, set := os.LookupEnv("LOG_TYPE"); set {
		loggingMode = logger.LogMode(strings.ToLower(logtype))
	}
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "do4u",
		Short: "Do4U local-services marketplace client",
		Long: `Command line client for the Do4U marketplace. Browse and act on jobs,
chat with the other party, and share or watch live job locations.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.ConfigureLogging(loggingMode)
			config.Load()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("api-url", config.DefaultAPIURL, "Base URL of the Do4U backend")
	pf.String("data-dir", "", "Directory for session state (defaults to ~/.do4u)")
	pf.String("viewer-id", "", "Acting user id, for card affordances")
	pf.String("viewer-role", string(models.RoleUser), "Acting role: user or genie")
	pf.StringVar((*string)(&loggingMode), "log-mode", string(loggingMode), "Log format: 'default' or 'json'")

	for _, key := range []string{config.KeyAPIURL, config.KeyDataDir, config.KeyViewerID, config.KeyViewerRole} {
		if err := viper.BindPFlag(key, pf.Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		jobs.NewCmd(),
		chat.NewCmd(),
		location.NewCmd(),
		notifications.NewCmd(),
	)
	return rootCmd
}

// Execute runs the root command with signal-aware cancellation.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := NewRootCmd()
	rootCmd.SetContext(ctx)
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
