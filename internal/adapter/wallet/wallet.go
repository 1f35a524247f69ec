// Package wallet implements the wallet bridge over local key material.
package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58/base58"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"

	"solana-miniapp/internal/config"
	"solana-miniapp/internal/domain"
	domainService "solana-miniapp/internal/domain/service"
	"solana-miniapp/internal/pkg/apperrors"
)

// Compile-time checks
var (
	_ domainService.Wallet        = (*KeypairWallet)(nil)
	_ domainService.MessageSigner = (*KeypairWallet)(nil)
	_ domainService.Wallet        = (*WatchOnlyWallet)(nil)
	_ domainService.Wallet        = Disconnected{}
)

// KeypairWallet holds an ed25519 secret key and can sign messages and transactions.
type KeypairWallet struct {
	key    solana.PrivateKey
	logger *zap.Logger
}

// NewKeypairWallet wraps an existing private key.
func NewKeypairWallet(key solana.PrivateKey, logger *zap.Logger) *KeypairWallet {
	return &KeypairWallet{key: key, logger: logger.Named("KeypairWallet")}
}

// FromBase58 loads a 64-byte secret key encoded in base58.
func FromBase58(secret string, logger *zap.Logger) (*KeypairWallet, error) {
	raw, err := base58.Decode(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: wallet private key is not base58: %v", apperrors.ErrInvalidInput, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: wallet private key must be %d bytes, got %d",
			apperrors.ErrInvalidInput, ed25519.PrivateKeySize, len(raw))
	}
	return NewKeypairWallet(solana.PrivateKey(raw), logger), nil
}

// FromMnemonic derives the key the way solana-keygen does without a derivation
// path: the first 32 bytes of the BIP-39 seed are the ed25519 seed.
func FromMnemonic(mnemonic, passphrase string, logger *zap.Logger) (*KeypairWallet, error) {
	seed, err := bip39.NewSeedWithErrorChecking(strings.TrimSpace(mnemonic), passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid wallet mnemonic: %v", apperrors.ErrInvalidInput, err)
	}
	key := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	return NewKeypairWallet(solana.PrivateKey(key), logger), nil
}

// PublicKey returns the wallet's account.
func (w *KeypairWallet) PublicKey() (solana.PublicKey, bool) {
	return w.key.PublicKey(), true
}

// SignMessage signs the raw message bytes.
func (w *KeypairWallet) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	sig, err := w.key.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig[:], nil
}

// SendTransaction signs tx with the wallet key and submits it through conn.
func (w *KeypairWallet) SendTransaction(
	ctx context.Context,
	tx *solana.Transaction,
	conn domainService.ChainConnection,
) (solana.Signature, error) {
	pub := w.key.PublicKey()
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(pub) {
			return &w.key
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	w.logger.Debug("Submitting signed transaction",
		zap.String("feePayer", pub.String()),
		zap.Int("instructions", len(tx.Message.Instructions)),
	)
	return conn.SendTransaction(ctx, tx)
}

// WatchOnlyWallet knows an account but holds no key.
type WatchOnlyWallet struct {
	address solana.PublicKey
}

// NewWatchOnlyWallet parses a base58 account address.
func NewWatchOnlyWallet(address string) (*WatchOnlyWallet, error) {
	pub, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid wallet address: %v", apperrors.ErrInvalidInput, err)
	}
	return &WatchOnlyWallet{address: pub}, nil
}

// PublicKey returns the watched account.
func (w *WatchOnlyWallet) PublicKey() (solana.PublicKey, bool) {
	return w.address, true
}

// SendTransaction always fails: a watch-only wallet cannot sign.
func (w *WatchOnlyWallet) SendTransaction(
	context.Context, *solana.Transaction, domainService.ChainConnection,
) (solana.Signature, error) {
	return solana.Signature{}, fmt.Errorf("%w: watch-only wallet cannot sign transactions", domain.ErrWalletCapability)
}

// Disconnected is the wallet bridge with no connected account.
type Disconnected struct{}

// PublicKey reports that no account is connected.
func (Disconnected) PublicKey() (solana.PublicKey, bool) {
	return solana.PublicKey{}, false
}

// SendTransaction always fails with domain.ErrWalletNotConnected.
func (Disconnected) SendTransaction(
	context.Context, *solana.Transaction, domainService.ChainConnection,
) (solana.Signature, error) {
	return solana.Signature{}, domain.ErrWalletNotConnected
}

// FromConfig picks the wallet adapter: a private key, then a mnemonic, then a
// watch-only address, else Disconnected.
func FromConfig(cfg config.WalletConfig, logger *zap.Logger) (domainService.Wallet, error) {
	switch {
	case cfg.PrivateKey != "":
		w, err := FromBase58(cfg.PrivateKey, logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	case cfg.Mnemonic != "":
		w, err := FromMnemonic(cfg.Mnemonic, "", logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	case cfg.Address != "":
		w, err := NewWatchOnlyWallet(cfg.Address)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		logger.Warn("No wallet configured; wallet actions will report a disconnected wallet")
		return Disconnected{}, nil
	}
}
