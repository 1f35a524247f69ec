package service

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"solana-miniapp/internal/domain/entity"
)

// ChainConnection reads chain state and broadcasts signed transactions.
type ChainConnection interface {
	// GetLatestBlockhash returns a recent block reference for transaction freshness.
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)

	// GetAccountInfo returns nil, nil when the account does not exist.
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*entity.AccountInfo, error)

	// SendTransaction broadcasts a fully signed transaction.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Wallet is the wallet bridge: the connected account and transaction submission.
type Wallet interface {
	// PublicKey returns the connected account, or false when none is connected.
	PublicKey() (solana.PublicKey, bool)

	// SendTransaction signs tx and submits it through conn.
	SendTransaction(ctx context.Context, tx *solana.Transaction, conn ChainConnection) (solana.Signature, error)
}

// MessageSigner is the optional message-signing capability of a Wallet.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}
