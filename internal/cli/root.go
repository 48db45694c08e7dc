package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/proxyops/internal/app"
	"github.com/trebuchet-org/proxyops/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// cleanupKey is the context key for the cancel funcs released by execute
	cleanupKey contextKey = "cleanup"
)

type cleanup struct {
	cancels []context.CancelFunc
}

func (c *cleanup) run() {
	for _, cancel := range c.cancels {
		cancel()
	}
}

// deferCancel releases cancel when execute returns, whether or not the
// command failed. Outside execute it falls back to PostRun.
func deferCancel(ctx context.Context, cmd *cobra.Command, cancel context.CancelFunc) {
	if c, ok := ctx.Value(cleanupKey).(*cleanup); ok {
		c.cancels = append(c.cancels, cancel)
		return
	}
	cmd.PostRun = func(cmd *cobra.Command, args []string) {
		cancel()
	}
}

// NewRootCmd creates the proxyops command with every script as a subcommand
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "proxyops",
		Short: "Deploy and operate the protocol administration proxy",
		Long: `proxyops deploys the administration proxy and forwards protocol
administration calls through it. Every command reads its inputs from the
environment (and .env), flags override them.`,
		PersistentPreRunE: initApp,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "proxy",
		Title: "Proxy Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "pool",
		Title: "Pool Administration Commands",
	})

	for _, cmd := range []*cobra.Command{NewDeployProxyCmd(), NewDeployProxyDirectCmd(), NewCallProxyCmd()} {
		cmd.GroupID = "proxy"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{NewSetPoolOwnerCmd(), NewSetShutdownLTVCmd(), NewActionsCmd()} {
		cmd.GroupID = "pool"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Standalone prepares a single script command to run as its own binary
func Standalone(cmd *cobra.Command) *cobra.Command {
	addGlobalFlags(cmd)
	return cmd
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., mainnet, sepolia)")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	cmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	cmd.PersistentFlags().Bool("confirm", false, "Ask for confirmation before submitting transactions")
}

// initApp builds the app for the command being executed and stores it in the context
func initApp(cmd *cobra.Command, args []string) error {
	// Skip for help/version commands
	if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	v := config.SetupViper(config.FindProjectRoot(), cmd)

	appInstance, err := app.InitApp(v)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, appKey, appInstance)

	// Bound the whole run, including every confirmation wait
	if appInstance.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
		deferCancel(ctx, cmd, cancel)
	}

	cmd.SetContext(ctx)
	return nil
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}

// Execute runs cmd and returns the process exit code. Failures are printed
// to stderr as "Error: <message>".
func Execute(cmd *cobra.Command) int {
	return execute(cmd, os.Stderr)
}

func execute(cmd *cobra.Command, stderr io.Writer) int {
	done := &cleanup{}
	defer done.run()

	if err := cmd.ExecuteContext(context.WithValue(context.Background(), cleanupKey, done)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
