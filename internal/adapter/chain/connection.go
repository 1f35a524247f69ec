package chain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
)

// Compile-time check
var _ domainService.ChainConnection = (*Connection)(nil)

// Connection reads chain state from a Solana JSON-RPC endpoint.
type Connection struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
	endpoint   string
	logger     *zap.Logger
}

// NewConnection creates a connection to endpoint using the given commitment level.
func NewConnection(endpoint, commitment string, logger *zap.Logger) *Connection {
	return &Connection{
		client:     rpc.New(endpoint),
		commitment: parseCommitment(commitment),
		endpoint:   endpoint,
		logger:     logger.Named("ChainConnection"),
	}
}

// Endpoint returns the RPC URL this connection talks to.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// GetLatestBlockhash returns the most recent blockhash at the configured commitment.
func (c *Connection) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.client.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		c.logger.Warn("getLatestBlockhash failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return solana.Hash{}, domain.NewNetworkError(err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, nil
	}
	return out.Value.Blockhash, nil
}

// GetAccountInfo returns nil, nil when the account does not exist.
func (c *Connection) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*entity.AccountInfo, error) {
	out, err := c.client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("getAccountInfo failed",
			zap.String("endpoint", c.endpoint), zap.String("account", account.String()), zap.Error(err))
		return nil, domain.NewNetworkError(err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	return &entity.AccountInfo{
		Owner:      out.Value.Owner.String(),
		Lamports:   out.Value.Lamports,
		Executable: out.Value.Executable,
	}, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *Connection) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		c.logger.Warn("sendTransaction failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return solana.Signature{}, err
	}
	c.logger.Info("Transaction submitted", zap.String("signature", sig.String()))
	return sig, nil
}

func parseCommitment(commitment string) rpc.CommitmentType {
	switch rpc.CommitmentType(commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return rpc.CommitmentType(commitment)
	default:
		return rpc.CommitmentConfirmed
	}
}
