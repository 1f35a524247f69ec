package application

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"

	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
)

// fakeBridge is an in-memory host bridge.
type fakeBridge struct {
	mu         sync.Mutex
	hostCtx    entity.HostContext
	ctxErr     error
	readyErr   error
	readyCalls int
	handlers   map[entity.HostEventKind]map[int]domainService.HostEventHandler
	nextID     int
	addResult  entity.AddFrameResult
	addErr     error
	opened     []string
	casts      []string
	closed     int

	// When set, Context and Ready signal the entered channel and block on the gate.
	ctxGate, ctxEntered     chan struct{}
	readyGate, readyEntered chan struct{}
}

func newFakeBridge(hostCtx entity.HostContext) *fakeBridge {
	return &fakeBridge{
		hostCtx:  hostCtx,
		handlers: make(map[entity.HostEventKind]map[int]domainService.HostEventHandler),
	}
}

func (b *fakeBridge) Context(context.Context) (entity.HostContext, error) {
	if b.ctxGate != nil {
		close(b.ctxEntered)
		<-b.ctxGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hostCtx, b.ctxErr
}

func (b *fakeBridge) Ready(context.Context) error {
	if b.readyGate != nil {
		close(b.readyEntered)
		<-b.readyGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readyCalls++
	return b.readyErr
}

func (b *fakeBridge) On(kind entity.HostEventKind, h domainService.HostEventHandler) domainService.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[int]domainService.HostEventHandler)
	}
	b.handlers[kind][b.nextID] = h
	return &fakeSub{bridge: b, kind: kind, id: b.nextID}
}

func (b *fakeBridge) OpenURL(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, url)
	return nil
}

func (b *fakeBridge) ComposeCast(_ context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.casts = append(b.casts, text)
	return nil
}

func (b *fakeBridge) SignIn(context.Context) (entity.SignInResult, error) {
	return entity.SignInResult{Message: "msg", Signature: "0xsig"}, nil
}

func (b *fakeBridge) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *fakeBridge) AddFrame(context.Context) (entity.AddFrameResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addResult, b.addErr
}

func (b *fakeBridge) emit(ev entity.HostEvent) {
	b.mu.Lock()
	var hs []domainService.HostEventHandler
	for _, h := range b.handlers[ev.Kind] {
		hs = append(hs, h)
	}
	b.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (b *fakeBridge) listenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, hs := range b.handlers {
		n += len(hs)
	}
	return n
}

type fakeSub struct {
	bridge *fakeBridge
	kind   entity.HostEventKind
	id     int
}

func (s *fakeSub) Unsubscribe() {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	delete(s.bridge.handlers[s.kind], s.id)
}

// fakeWallet is a connected wallet that records submitted transactions.
type fakeWallet struct {
	pub     solana.PublicKey
	sig     solana.Signature
	sendErr error

	mu   sync.Mutex
	sent []*solana.Transaction
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{pub: solana.NewWallet().PublicKey(), sig: solana.Signature{1, 2, 3}}
}

func (w *fakeWallet) PublicKey() (solana.PublicKey, bool) { return w.pub, true }

func (w *fakeWallet) SendTransaction(_ context.Context, tx *solana.Transaction, _ domainService.ChainConnection) (solana.Signature, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, tx)
	if w.sendErr != nil {
		return solana.Signature{}, w.sendErr
	}
	return w.sig, nil
}

func (w *fakeWallet) lastSent() *solana.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.sent) == 0 {
		return nil
	}
	return w.sent[len(w.sent)-1]
}

// signingWallet adds message signing to fakeWallet.
type signingWallet struct {
	*fakeWallet
	signature []byte
	err       error
	signed    []byte
}

func (w *signingWallet) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	w.signed = msg
	return w.signature, w.err
}

// noWallet has no connected account.
type noWallet struct{}

func (noWallet) PublicKey() (solana.PublicKey, bool) { return solana.PublicKey{}, false }

func (noWallet) SendTransaction(context.Context, *solana.Transaction, domainService.ChainConnection) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not connected")
}

// fakeConn serves a fixed blockhash and account table.
type fakeConn struct {
	hash       solana.Hash
	hashErr    error
	accounts   map[solana.PublicKey]*entity.AccountInfo
	accountErr error
	hashCalls  int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		hash:     solana.Hash(solana.NewWallet().PublicKey()),
		accounts: make(map[solana.PublicKey]*entity.AccountInfo),
	}
}

func (c *fakeConn) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	c.hashCalls++
	return c.hash, c.hashErr
}

func (c *fakeConn) GetAccountInfo(_ context.Context, account solana.PublicKey) (*entity.AccountInfo, error) {
	if c.accountErr != nil {
		return nil, c.accountErr
	}
	return c.accounts[account], nil
}

func (c *fakeConn) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, errors.New("wallet submits transactions")
}

// fakeNotifier records send-notification requests.
type fakeNotifier struct {
	resp  domainService.NotificationResponse
	err   error
	calls int
	fid   int64
}

func (n *fakeNotifier) SendNotification(_ context.Context, fid int64, _ entity.NotificationDetails) (domainService.NotificationResponse, error) {
	n.calls++
	n.fid = fid
	return n.resp, n.err
}
