package application

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
)

// SignMessageFlow signs the fixed demonstration message with the wallet.
type SignMessageFlow struct {
	*flowState
	wallet  domainService.Wallet
	message string
}

// NewSignMessageFlow creates the flow for wallet and message.
func NewSignMessageFlow(wallet domainService.Wallet, message string, logger *zap.Logger) *SignMessageFlow {
	return &SignMessageFlow{
		flowState: newFlowState("sign_message", logger.Named("SignMessageFlow")),
		wallet:    wallet,
		message:   message,
	}
}

// Run signs the message and stores the base64 signature. It never contacts
// the network when the wallet cannot sign messages.
func (f *SignMessageFlow) Run(ctx context.Context) entity.ActionResult {
	started := f.begin()

	signer, ok := f.wallet.(domainService.MessageSigner)
	if !ok {
		return f.fail(started, fmt.Errorf("%w: wallet does not support message signing", domain.ErrWalletCapability))
	}

	sig, err := signer.SignMessage(ctx, []byte(f.message))
	if err != nil {
		return f.fail(started, err)
	}
	return f.succeed(started, base64.StdEncoding.EncodeToString(sig))
}
