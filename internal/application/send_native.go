package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
)

// SendNativeFlow transfers a fixed amount of lamports to the demo destination.
type SendNativeFlow struct {
	*flowState
	wallet      domainService.Wallet
	conn        domainService.ChainConnection
	destination string
	lamports    uint64
}

// NewSendNativeFlow creates the flow.
func NewSendNativeFlow(
	wallet domainService.Wallet,
	conn domainService.ChainConnection,
	destination string,
	lamports uint64,
	logger *zap.Logger,
) *SendNativeFlow {
	return &SendNativeFlow{
		flowState:   newFlowState("send_native", logger.Named("SendNativeFlow")),
		wallet:      wallet,
		conn:        conn,
		destination: destination,
		lamports:    lamports,
	}
}

// Run builds, signs and submits the transfer. It always resolves to Success
// holding the base58 signature or to Failure.
func (f *SendNativeFlow) Run(ctx context.Context) entity.ActionResult {
	started := f.begin()

	from, ok := f.wallet.PublicKey()
	if !ok {
		return f.fail(started, domain.ErrWalletNotConnected)
	}

	blockhash, err := latestBlockhash(ctx, f.conn, "failed to fetch latest blockhash")
	if err != nil {
		return f.fail(started, err)
	}

	to, err := solana.PublicKeyFromBase58(strings.TrimSpace(f.destination))
	if err != nil {
		return f.fail(started, fmt.Errorf("invalid destination address %q: %w", f.destination, err))
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(f.lamports, from, to).Build()},
		blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return f.fail(started, fmt.Errorf("failed to build transaction: %w", err))
	}

	f.logger.Debug("Submitting native transfer",
		zap.String("from", entity.TruncateAddress(from.String())),
		zap.String("to", entity.TruncateAddress(to.String())),
		zap.Uint64("lamports", f.lamports),
	)
	sig, err := f.wallet.SendTransaction(ctx, tx, f.conn)
	if err != nil {
		return f.fail(started, err)
	}
	return f.succeed(started, sig.String())
}

// latestBlockhash fetches a block reference. RPC errors keep their message
// and are classified as domain.ErrNetwork. A zero hash fails with emptyMsg.
func latestBlockhash(ctx context.Context, conn domainService.ChainConnection, emptyMsg string) (solana.Hash, error) {
	hash, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Hash{}, domain.NewNetworkError(err)
	}
	if hash == (solana.Hash{}) {
		return solana.Hash{}, errors.New(emptyMsg)
	}
	return hash, nil
}
