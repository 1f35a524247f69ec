package application

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
	"solana-miniapp/internal/config"
	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	tokenRegistry "solana-miniapp/internal/domain/token"
)

// Compile-time check
var _ port.MiniAppService = (*MiniApp)(nil)

// MiniApp coordinates the host session, the wallet flows and the host actions.
type MiniApp struct {
	rootCtx context.Context
	session *Session
	wallet  domainService.Wallet
	tokens  *tokenRegistry.Registry
	cluster entity.Cluster
	logger  *zap.Logger

	SignMessageFlow *SignMessageFlow
	SendNativeFlow  *SendNativeFlow
	SendTokenFlow   *SendTokenFlow
	Actions         *HostActions

	wg       sync.WaitGroup
	watchers sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// Deps groups the collaborators of a MiniApp.
type Deps struct {
	Bridge   domainService.HostBridge
	Wallet   domainService.Wallet
	Conn     domainService.ChainConnection
	Notifier domainService.NotificationClient
	Tokens   *tokenRegistry.Registry
}

// NewMiniApp wires the coordinator. Background flows run under rootCtx.
func NewMiniApp(rootCtx context.Context, deps Deps, cfg config.Config, logger *zap.Logger) *MiniApp {
	session := NewSession(deps.Bridge, logger)
	return &MiniApp{
		rootCtx: rootCtx,
		session: session,
		wallet:  deps.Wallet,
		tokens:  deps.Tokens,
		cluster: entity.Cluster(cfg.Solana.Cluster),
		logger:  logger.Named("MiniApp"),
		stop:    make(chan struct{}),

		SignMessageFlow: NewSignMessageFlow(deps.Wallet, cfg.Demo.Message, logger),
		SendNativeFlow:  NewSendNativeFlow(deps.Wallet, deps.Conn, cfg.Demo.Destination, cfg.Demo.Lamports, logger),
		SendTokenFlow:   NewSendTokenFlow(deps.Wallet, deps.Conn, deps.Tokens, cfg.Demo.TokenAmount, logger),
		Actions:         NewHostActions(deps.Bridge, session, deps.Notifier, cfg.Demo, logger),
	}
}

// Session returns the host session.
func (m *MiniApp) Session() *Session {
	return m.session
}

// Start bootstraps the host session.
func (m *MiniApp) Start(ctx context.Context) error {
	return m.session.Start(ctx)
}

// Loaded reports whether the host session is loaded.
func (m *MiniApp) Loaded() bool {
	return m.session.Loaded()
}

// Shutdown releases the session and waits for background flows and watchers.
func (m *MiniApp) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.session.Close()
	m.wg.Wait()
	m.watchers.Wait()
}

// CloseOnDisconnect closes the session once disconnected is closed, so actions
// report the session as not loaded instead of failing against a dead bridge.
func (m *MiniApp) CloseOnDisconnect(disconnected <-chan struct{}) {
	m.watchers.Add(1)
	go func() {
		defer m.watchers.Done()
		select {
		case <-disconnected:
			m.logger.Warn("Host bridge disconnected, closing session")
			m.session.Close()
		case <-m.stop:
		case <-m.rootCtx.Done():
		}
	}()
}

// Wait blocks until every launched flow resolved.
func (m *MiniApp) Wait() {
	m.wg.Wait()
}

// SignMessage runs the sign-message flow.
func (m *MiniApp) SignMessage(ctx context.Context) (entity.ActionResult, error) {
	if !m.Loaded() {
		return nil, domain.ErrSessionNotReady
	}
	return m.SignMessageFlow.Run(ctx), nil
}

// SendNative runs the send-native flow.
func (m *MiniApp) SendNative(ctx context.Context) (entity.ActionResult, error) {
	if !m.Loaded() {
		return nil, domain.ErrSessionNotReady
	}
	return m.SendNativeFlow.Run(ctx), nil
}

// SendToken runs the send-token flow.
func (m *MiniApp) SendToken(ctx context.Context, symbol, destination string) (entity.ActionResult, error) {
	if !m.Loaded() {
		return nil, domain.ErrSessionNotReady
	}
	return m.SendTokenFlow.Run(ctx, symbol, destination)
}

// LaunchSignMessage starts the sign-message flow in the background.
func (m *MiniApp) LaunchSignMessage() error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	m.launch(func(ctx context.Context) { m.SignMessageFlow.Run(ctx) })
	return nil
}

// LaunchSendNative starts the send-native flow in the background.
func (m *MiniApp) LaunchSendNative() error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	m.launch(func(ctx context.Context) { m.SendNativeFlow.Run(ctx) })
	return nil
}

// LaunchSendToken checks the send-token preconditions and starts the transfer
// in the background.
func (m *MiniApp) LaunchSendToken(symbol, destination string) error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	req, err := m.SendTokenFlow.Check(symbol, destination)
	if err != nil {
		return err
	}
	m.launch(func(ctx context.Context) { m.SendTokenFlow.Execute(ctx, req) })
	return nil
}

// AddMiniApp asks the host to add the app.
func (m *MiniApp) AddMiniApp(ctx context.Context) (port.AddMiniAppOutcome, error) {
	if !m.Loaded() {
		return port.AddMiniAppOutcome{}, domain.ErrSessionNotReady
	}
	return m.Actions.AddMiniApp(ctx), nil
}

// SendNotification asks the backend to notify the current user.
func (m *MiniApp) SendNotification(ctx context.Context) (string, error) {
	if !m.Loaded() {
		return "", domain.ErrSessionNotReady
	}
	return m.Actions.SendNotification(ctx), nil
}

// OpenURL opens the demo external link.
func (m *MiniApp) OpenURL(ctx context.Context) error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	return m.Actions.OpenURL(ctx)
}

// ComposeCast opens the host composer.
func (m *MiniApp) ComposeCast(ctx context.Context) error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	return m.Actions.ComposeCast(ctx)
}

// SignIn triggers host sign-in.
func (m *MiniApp) SignIn(ctx context.Context) (entity.SignInResult, error) {
	if !m.Loaded() {
		return entity.SignInResult{}, domain.ErrSessionNotReady
	}
	return m.Actions.SignIn(ctx)
}

// Close asks the host to close the app.
func (m *MiniApp) Close(ctx context.Context) error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	return m.Actions.Close(ctx)
}

// ViewProfile opens the demo profile.
func (m *MiniApp) ViewProfile(ctx context.Context) error {
	if !m.Loaded() {
		return domain.ErrSessionNotReady
	}
	return m.Actions.ViewProfile(ctx)
}

// View builds the presentation model.
func (m *MiniApp) View() port.View {
	snap := m.session.Snapshot()
	addFrame, notification := m.Actions.Results()

	v := port.View{
		Loading:             !snap.Loaded,
		Context:             snap.Context,
		Added:               snap.Added,
		LastEvent:           snap.LastEvent,
		NotificationDetails: snap.NotificationDetails,
		SignMessage:         entity.ResultView{Result: m.SignMessageFlow.State()},
		SendNative:          entity.ResultView{Result: m.SendNativeFlow.State()},
		SendToken:           entity.ResultView{Result: m.SendTokenFlow.State()},
		AddFrameResult:      addFrame,
		NotificationSent:    notification,
	}
	if m.tokens != nil {
		v.Tokens = m.tokens.Symbols()
	}
	if pub, ok := m.wallet.PublicKey(); ok {
		addr := pub.String()
		v.Wallet = port.WalletView{Connected: true, Address: addr, Short: entity.TruncateAddress(addr)}
	}
	if s, ok := v.SendNative.Result.(entity.Success); ok {
		v.SendNativeTxURL = entity.ExplorerTxURL(s.Payload, m.cluster)
	}
	if s, ok := v.SendToken.Result.(entity.Success); ok {
		v.SendTokenTxURL = entity.ExplorerTxURL(s.Payload, m.cluster)
	}
	return v
}

func (m *MiniApp) launch(run func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		run(m.rootCtx)
	}()
}
