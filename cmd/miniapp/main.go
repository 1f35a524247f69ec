package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-miniapp/internal/config"
	"solana-miniapp/internal/logger"
)

var (
	configPath string

	cfg *config.Config
	log *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "miniapp",
	Short: "Solana wallet mini app backend",
	Long: `Backend for a Solana wallet mini app embedded in a social host client.

serve runs the HTTP service: discovery metadata, the send-notification
endpoint and the action API driven through the host bridge. The flow
commands run a single wallet flow against the configured wallet and RPC.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
		l, err := logger.NewLogger(loaded.Logger, loaded.App)
		if err != nil {
			return fmt.Errorf("failed to setup logger: %w", err)
		}
		cfg, log = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs", "Directory holding config.yaml")

	sendTokenCmd.Flags().StringVar(&tokenSymbol, "symbol", "", "Token symbol from the reference table (see 'tokens')")
	sendTokenCmd.Flags().StringVar(&tokenDestination, "to", "", "Destination address (default: demo destination)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(signMessageCmd)
	rootCmd.AddCommand(sendNativeCmd)
	rootCmd.AddCommand(sendTokenCmd)
	rootCmd.AddCommand(tokensCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
