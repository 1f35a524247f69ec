package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"solana-miniapp/internal/adapter/chain"
	"solana-miniapp/internal/adapter/rpc"
	"solana-miniapp/internal/adapter/storage/memory"
	"solana-miniapp/internal/adapter/wallet"
	"solana-miniapp/internal/application"
	"solana-miniapp/internal/domain/entity"
	"solana-miniapp/internal/domain/token"
)

const cacheCleanupInterval = 10 * time.Minute

var (
	tokenSymbol      string
	tokenDestination string
)

var signMessageCmd = &cobra.Command{
	Use:   "sign-message",
	Short: "Sign the demo message with the configured wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.FromConfig(cfg.Wallet, log)
		if err != nil {
			return err
		}
		flow := application.NewSignMessageFlow(w, cfg.Demo.Message, log)
		return printResult(cmd.OutOrStdout(), flow.Run(cmd.Context()))
	},
}

var sendNativeCmd = &cobra.Command{
	Use:   "send-native",
	Short: "Send the demo lamports to the demo destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, _, err := buildWalletDeps(cmd.Context())
		if err != nil {
			return err
		}
		flow := application.NewSendNativeFlow(deps.Wallet, deps.Conn, cfg.Demo.Destination, cfg.Demo.Lamports, log)
		return printResult(cmd.OutOrStdout(), flow.Run(cmd.Context()))
	},
}

var sendTokenCmd = &cobra.Command{
	Use:   "send-token",
	Short: "Send the demo token amount to a destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, _, err := buildWalletDeps(cmd.Context())
		if err != nil {
			return err
		}
		destination := tokenDestination
		if destination == "" {
			destination = cfg.Demo.Destination
		}
		flow := application.NewSendTokenFlow(deps.Wallet, deps.Conn, deps.Tokens, cfg.Demo.TokenAmount, log)
		res, err := flow.Run(cmd.Context(), tokenSymbol, destination)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the token reference table",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := token.Default()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tMINT\tDECIMALS")
		for _, t := range tokens.All() {
			fmt.Fprintf(w, "%s\t%s\t%d\n", t.Symbol, t.Mint, t.Decimals)
		}
		return w.Flush()
	},
}

// buildWalletDeps wires the wallet, the chain connection on the selected
// endpoint and the token table. The cache is shared with the metadata service.
func buildWalletDeps(ctx context.Context) (application.Deps, *memory.CacheRepository, error) {
	cacheRepo := memory.NewCacheRepository(cfg.Solana.GetCheckTTL(), cacheCleanupInterval, log)
	selector := application.NewEndpointSelector(rpc.NewChecker(log), cacheRepo, cfg.Solana, log)
	endpoint, _ := selector.Select(ctx)
	if endpoint == "" {
		return application.Deps{}, nil, fmt.Errorf("no solana rpc endpoint configured")
	}

	w, err := wallet.FromConfig(cfg.Wallet, log)
	if err != nil {
		return application.Deps{}, nil, err
	}
	tokens, err := token.Default()
	if err != nil {
		return application.Deps{}, nil, err
	}

	return application.Deps{
		Wallet: w,
		Conn:   chain.NewConnection(endpoint, cfg.Solana.Commitment, log),
		Tokens: tokens,
	}, cacheRepo, nil
}

type resultOutput struct {
	Result   entity.ResultView `json:"result"`
	Explorer string            `json:"explorerUrl,omitempty"`
}

func printResult(out io.Writer, res entity.ActionResult) error {
	o := resultOutput{Result: entity.ResultView{Result: res}}
	if s, ok := res.(entity.Success); ok {
		o.Explorer = entity.ExplorerTxURL(s.Payload, entity.Cluster(cfg.Solana.Cluster))
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}
