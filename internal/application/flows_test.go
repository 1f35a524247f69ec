package application

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	tokenRegistry "solana-miniapp/internal/domain/token"
)

const demoDestination = "5onjZQHpbNJytKMUs5L6JPzW6WgRs14P94DzzenjqmKs"

func programOf(tx *solana.Transaction, ix solana.CompiledInstruction) solana.PublicKey {
	return tx.Message.AccountKeys[ix.ProgramIDIndex]
}

func defaultTokens(t *testing.T) *tokenRegistry.Registry {
	t.Helper()
	r, err := tokenRegistry.Default()
	require.NoError(t, err)
	return r
}

func TestSignMessageFlow_Unsupported(t *testing.T) {
	flow := NewSignMessageFlow(newFakeWallet(), "Hello from Solana Starter!", zap.NewNop())

	res := flow.Run(context.Background())
	failure, ok := res.(entity.Failure)
	require.True(t, ok, "got %T", res)
	assert.Contains(t, failure.Message, "does not support message signing")
	assert.Equal(t, res, flow.State())
}

func TestSignMessageFlow_Success(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	msg := "Hello from Solana Starter!"
	sig := ed25519.Sign(ed25519.PrivateKey(key), []byte(msg))

	w := &signingWallet{fakeWallet: newFakeWallet(), signature: sig}
	flow := NewSignMessageFlow(w, msg, zap.NewNop())

	res := flow.Run(context.Background())
	assert.Equal(t, entity.Success{Payload: base64.StdEncoding.EncodeToString(sig)}, res)
	assert.Equal(t, []byte(msg), w.signed)
}

func TestSignMessageFlow_SignerError(t *testing.T) {
	w := &signingWallet{fakeWallet: newFakeWallet(), err: errors.New("User rejected the request.")}
	flow := NewSignMessageFlow(w, "hi", zap.NewNop())

	assert.Equal(t, entity.Failure{Message: "User rejected the request."}, flow.Run(context.Background()))
}

func TestSendNativeFlow_Success(t *testing.T) {
	w := newFakeWallet()
	conn := newFakeConn()
	flow := NewSendNativeFlow(w, conn, demoDestination, 1000, zap.NewNop())

	assert.Equal(t, entity.None{}, flow.State())
	res := flow.Run(context.Background())
	assert.Equal(t, entity.Success{Payload: w.sig.String()}, res)

	tx := w.lastSent()
	require.NotNil(t, tx)
	assert.Equal(t, conn.hash, tx.Message.RecentBlockhash)
	assert.Equal(t, w.pub, tx.Message.AccountKeys[0], "fee payer comes first")
	require.Len(t, tx.Message.Instructions, 1)

	ix := tx.Message.Instructions[0]
	assert.Equal(t, solana.SystemProgramID, programOf(tx, ix))
	require.Len(t, ix.Data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(ix.Data[:4]))
	assert.Equal(t, uint64(1000), binary.LittleEndian.Uint64(ix.Data[4:]))
}

func TestSendNativeFlow_BlockhashFailure(t *testing.T) {
	w := newFakeWallet()
	conn := newFakeConn()
	conn.hashErr = errors.New("connection refused")
	flow := NewSendNativeFlow(w, conn, demoDestination, 1000, zap.NewNop())

	res := flow.Run(context.Background())
	failure, ok := res.(entity.Failure)
	require.True(t, ok)
	assert.Equal(t, "connection refused", failure.Message, "the rpc error message is shown unchanged")
	assert.Nil(t, w.lastSent(), "nothing is submitted")
	assert.Equal(t, entity.StatusError, flow.State().Status())
}

func TestSendNativeFlow_FailurePaths(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		flow := NewSendNativeFlow(noWallet{}, newFakeConn(), demoDestination, 1000, zap.NewNop())
		assert.Equal(t, entity.Failure{Message: domain.ErrWalletNotConnected.Error()}, flow.Run(context.Background()))
	})

	t.Run("empty blockhash", func(t *testing.T) {
		conn := newFakeConn()
		conn.hash = solana.Hash{}
		flow := NewSendNativeFlow(newFakeWallet(), conn, demoDestination, 1000, zap.NewNop())
		assert.Equal(t, entity.Failure{Message: "failed to fetch latest blockhash"}, flow.Run(context.Background()))
	})

	t.Run("bad destination", func(t *testing.T) {
		flow := NewSendNativeFlow(newFakeWallet(), newFakeConn(), "not-an-address", 1000, zap.NewNop())
		assert.Equal(t, entity.StatusError, flow.Run(context.Background()).Status())
	})

	t.Run("wallet rejects", func(t *testing.T) {
		w := newFakeWallet()
		w.sendErr = errors.New("Transaction rejected")
		flow := NewSendNativeFlow(w, newFakeConn(), demoDestination, 1000, zap.NewNop())
		assert.Equal(t, entity.Failure{Message: "Transaction rejected"}, flow.Run(context.Background()))
	})
}

// gatedConn holds every blockhash request until the test releases it.
type gatedConn struct {
	*fakeConn
	mu       sync.Mutex
	n        int
	gates    []chan struct{}
	arrivals chan int
}

func newGatedConn(calls int) *gatedConn {
	c := &gatedConn{fakeConn: newFakeConn(), arrivals: make(chan int, calls)}
	for i := 0; i < calls; i++ {
		c.gates = append(c.gates, make(chan struct{}))
	}
	return c
}

func (c *gatedConn) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	c.mu.Lock()
	i := c.n
	c.n++
	c.mu.Unlock()

	c.arrivals <- i
	<-c.gates[i]
	return solana.Hash{}, fmt.Errorf("attempt %d", i)
}

func TestSendNativeFlow_OverlappingRunsLastResolvedWins(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	conn := newGatedConn(2)
	flow := NewSendNativeFlow(newFakeWallet(), conn, demoDestination, 1000, zap.NewNop())

	results := make(chan entity.ActionResult, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- flow.Run(context.Background()) }()
	}
	<-conn.arrivals
	<-conn.arrivals
	assert.Equal(t, entity.Pending{}, flow.State())

	// The second attempt resolves first.
	close(conn.gates[1])
	first := <-results
	assert.Equal(t, entity.Failure{Message: "attempt 1"}, first)
	assert.Equal(t, first, flow.State())

	// The earlier attempt resolves last and overwrites the result.
	close(conn.gates[0])
	last := <-results
	assert.Equal(t, entity.Failure{Message: "attempt 0"}, last)

	assert.Equal(t, last, flow.State())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, last, flow.State(), "final state is stable once both resolved")
}

func TestSendTokenFlow_Amounts(t *testing.T) {
	tokens := defaultTokens(t)
	recipient := solana.MustPublicKeyFromBase58(demoDestination)

	for _, tc := range []struct {
		symbol   string
		decimals uint8
		amount   uint64
	}{
		{"USDC", 6, 10000},
		{"USDT", 6, 10000},
		{"BONK", 5, 1000},
	} {
		t.Run(tc.symbol, func(t *testing.T) {
			w := newFakeWallet()
			conn := newFakeConn()
			flow := NewSendTokenFlow(w, conn, tokens, "0.01", zap.NewNop())

			res, err := flow.Run(context.Background(), tc.symbol, demoDestination)
			require.NoError(t, err)
			assert.Equal(t, entity.Success{Payload: w.sig.String()}, res)

			tx := w.lastSent()
			require.NotNil(t, tx)
			require.Len(t, tx.Message.Instructions, 2, "missing recipient account is created first")

			create := tx.Message.Instructions[0]
			assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, programOf(tx, create))

			transfer := tx.Message.Instructions[1]
			assert.Equal(t, solana.TokenProgramID, programOf(tx, transfer))
			require.Len(t, transfer.Data, 10)
			assert.Equal(t, byte(12), transfer.Data[0])
			assert.Equal(t, tc.amount, binary.LittleEndian.Uint64(transfer.Data[1:9]))
			assert.Equal(t, tc.decimals, transfer.Data[9])

			desc, err := tokens.Lookup(tc.symbol)
			require.NoError(t, err)
			mint := solana.MustPublicKeyFromBase58(desc.Mint)
			toATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
			require.NoError(t, err)
			fromATA, _, err := solana.FindAssociatedTokenAddress(w.pub, mint)
			require.NoError(t, err)
			assert.Equal(t, fromATA, tx.Message.AccountKeys[transfer.Accounts[0]])
			assert.Equal(t, mint, tx.Message.AccountKeys[transfer.Accounts[1]])
			assert.Equal(t, toATA, tx.Message.AccountKeys[transfer.Accounts[2]])
			assert.Equal(t, w.pub, tx.Message.AccountKeys[transfer.Accounts[3]])
		})
	}
}

func TestSendTokenFlow_ExistingRecipientAccount(t *testing.T) {
	tokens := defaultTokens(t)
	desc, err := tokens.Lookup("USDC")
	require.NoError(t, err)
	toATA, _, err := solana.FindAssociatedTokenAddress(
		solana.MustPublicKeyFromBase58(demoDestination), solana.MustPublicKeyFromBase58(desc.Mint))
	require.NoError(t, err)

	w := newFakeWallet()
	conn := newFakeConn()
	conn.accounts[toATA] = &entity.AccountInfo{Owner: solana.TokenProgramID.String(), Lamports: 2039280}
	flow := NewSendTokenFlow(w, conn, tokens, "0.01", zap.NewNop())

	_, err = flow.Run(context.Background(), "usdc", demoDestination)
	require.NoError(t, err)
	tx := w.lastSent()
	require.Len(t, tx.Message.Instructions, 1)
	assert.Equal(t, solana.TokenProgramID, programOf(tx, tx.Message.Instructions[0]))
}

func TestSendTokenFlow_PreconditionsLeaveStateUntouched(t *testing.T) {
	tokens := defaultTokens(t)
	for _, tc := range []struct {
		name         string
		disconnected bool
		symbol       string
		destination  string
		want         error
	}{
		{"not connected", true, "USDC", demoDestination, domain.ErrWalletNotConnected},
		{"no symbol", false, "", demoDestination, domain.ErrNoTokenSelected},
		{"unknown symbol", false, "DOGE", demoDestination, domain.ErrNoTokenSelected},
		{"no destination", false, "USDC", "  ", domain.ErrNoDestination},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conn := newFakeConn()
			flow := NewSendTokenFlow(newFakeWallet(), conn, tokens, "0.01", zap.NewNop())
			if tc.disconnected {
				flow = NewSendTokenFlow(noWallet{}, conn, tokens, "0.01", zap.NewNop())
			}

			res, err := flow.Run(context.Background(), tc.symbol, tc.destination)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Nil(t, res)
			assert.Equal(t, entity.None{}, flow.State())
			assert.Zero(t, conn.hashCalls)
		})
	}
}

func TestSendTokenFlow_MidFlightFailures(t *testing.T) {
	tokens := defaultTokens(t)

	t.Run("blockhash", func(t *testing.T) {
		conn := newFakeConn()
		conn.hashErr = errors.New("503 Service Unavailable")
		flow := NewSendTokenFlow(newFakeWallet(), conn, tokens, "0.01", zap.NewNop())
		res, err := flow.Run(context.Background(), "BONK", demoDestination)
		require.NoError(t, err)
		assert.Contains(t, res.(entity.Failure).Message, "503 Service Unavailable")
	})

	t.Run("invalid recipient", func(t *testing.T) {
		flow := NewSendTokenFlow(newFakeWallet(), newFakeConn(), tokens, "0.01", zap.NewNop())
		res, err := flow.Run(context.Background(), "USDC", "xyz")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusError, res.Status())
		assert.Equal(t, res, flow.State())
	})

	t.Run("account lookup", func(t *testing.T) {
		conn := newFakeConn()
		conn.accountErr = fmt.Errorf("%w: timeout", domain.ErrNetwork)
		w := newFakeWallet()
		flow := NewSendTokenFlow(w, conn, tokens, "0.01", zap.NewNop())
		res, err := flow.Run(context.Background(), "USDC", demoDestination)
		require.NoError(t, err)
		assert.Equal(t, entity.Failure{Message: "chain rpc failure: timeout"}, res)
		assert.Nil(t, w.lastSent())
	})
}
