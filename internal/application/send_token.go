package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	tokenRegistry "solana-miniapp/internal/domain/token"
)

// SendTokenFlow transfers a fixed amount of an SPL token from the connected
// account to a chosen destination.
type SendTokenFlow struct {
	*flowState
	wallet domainService.Wallet
	conn   domainService.ChainConnection
	tokens *tokenRegistry.Registry
	amount string
}

// NewSendTokenFlow creates the flow. amount is a decimal string in whole token
// units, scaled by each token's decimals.
func NewSendTokenFlow(
	wallet domainService.Wallet,
	conn domainService.ChainConnection,
	tokens *tokenRegistry.Registry,
	amount string,
	logger *zap.Logger,
) *SendTokenFlow {
	return &SendTokenFlow{
		flowState: newFlowState("send_token", logger.Named("SendTokenFlow")),
		wallet:    wallet,
		conn:      conn,
		tokens:    tokens,
		amount:    amount,
	}
}

// TokenTransfer is a send-token request that passed its preconditions.
type TokenTransfer struct {
	From        solana.PublicKey
	Token       entity.TokenDescriptor
	Destination string
}

// Check validates the preconditions in order: connected account, known symbol,
// non-empty destination. A failure leaves the flow state untouched.
func (f *SendTokenFlow) Check(symbol, destination string) (TokenTransfer, error) {
	from, ok := f.wallet.PublicKey()
	if !ok {
		return TokenTransfer{}, domain.ErrWalletNotConnected
	}
	if strings.TrimSpace(symbol) == "" {
		return TokenTransfer{}, domain.ErrNoTokenSelected
	}
	desc, err := f.tokens.Lookup(symbol)
	if err != nil {
		return TokenTransfer{}, fmt.Errorf("%w: %v", domain.ErrNoTokenSelected, err)
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return TokenTransfer{}, domain.ErrNoDestination
	}
	return TokenTransfer{From: from, Token: desc, Destination: destination}, nil
}

// Run checks the preconditions and, when they hold, executes the transfer.
// Precondition failures are returned as errors without entering Pending;
// every later failure resolves the flow to Failure.
func (f *SendTokenFlow) Run(ctx context.Context, symbol, destination string) (entity.ActionResult, error) {
	req, err := f.Check(symbol, destination)
	if err != nil {
		return nil, err
	}
	return f.Execute(ctx, req), nil
}

// Execute runs a checked transfer.
func (f *SendTokenFlow) Execute(ctx context.Context, req TokenTransfer) entity.ActionResult {
	started := f.begin()

	blockhash, err := latestBlockhash(ctx, f.conn, "failed to fetch the latest blockhash")
	if err != nil {
		return f.fail(started, err)
	}

	mint, err := solana.PublicKeyFromBase58(req.Token.Mint)
	if err != nil {
		return f.fail(started, fmt.Errorf("invalid mint for %s: %w", req.Token.Symbol, err))
	}
	recipient, err := solana.PublicKeyFromBase58(req.Destination)
	if err != nil {
		return f.fail(started, fmt.Errorf("invalid destination address %q: %w", req.Destination, err))
	}

	amount, err := req.Token.BaseUnits(f.amount)
	if err != nil {
		return f.fail(started, err)
	}

	instructions, err := f.transferInstructions(ctx, req.From, recipient, mint, amount, req.Token.Decimals)
	if err != nil {
		return f.fail(started, err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(req.From))
	if err != nil {
		return f.fail(started, fmt.Errorf("failed to build transaction: %w", err))
	}

	f.logger.Debug("Submitting token transfer",
		zap.String("symbol", req.Token.Symbol),
		zap.Uint64("amount", amount),
		zap.Uint8("decimals", req.Token.Decimals),
		zap.String("to", entity.TruncateAddress(recipient.String())),
		zap.Int("instructions", len(instructions)),
	)
	sig, err := f.wallet.SendTransaction(ctx, tx, f.conn)
	if err != nil {
		return f.fail(started, err)
	}
	return f.succeed(started, sig.String())
}

// transferInstructions returns a TransferChecked between the associated token
// accounts, preceded by the recipient account's creation when it is missing.
func (f *SendTokenFlow) transferInstructions(
	ctx context.Context,
	from, recipient, mint solana.PublicKey,
	amount uint64,
	decimals uint8,
) ([]solana.Instruction, error) {
	fromATA, _, err := solana.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sender token account: %w", err)
	}
	toATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive recipient token account: %w", err)
	}

	var instructions []solana.Instruction

	info, err := f.conn.GetAccountInfo(ctx, toATA)
	if err != nil {
		return nil, err
	}
	if info == nil {
		f.logger.Debug("Recipient token account missing, creating it",
			zap.String("ata", entity.TruncateAddress(toATA.String())))
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(from, recipient, mint).Build())
	}

	instructions = append(instructions,
		token.NewTransferCheckedInstruction(amount, decimals, fromATA, mint, toATA, from, nil).Build())
	return instructions, nil
}
