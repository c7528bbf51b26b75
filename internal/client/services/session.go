package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/client/models"
	"github.com/dmitrijs2005/gophmarket/internal/client/wallet"
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
)

// SessionStore persists the flag recording that the user connected on
// purpose. metadata.SessionStore implements it.
type SessionStore interface {
	WasConnected(ctx context.Context) (bool, error)
	MarkConnected(ctx context.Context) error
	ConnectedAt(ctx context.Context) (time.Time, error)
	Clear(ctx context.Context) error
}

// SessionService owns the wallet identity of the client.
//
// Contract:
//   - Connect: request account access, possibly prompting. A repeated call
//     for the account already connected does not prompt again.
//   - ResetConnection: ask the wallet to re-prompt for permissions, then
//     Connect. A failed reset is not fatal.
//   - Disconnect: clear the session and the persisted flag. Idempotent.
//   - AutoReconnect: restore a persisted session without prompting.
//   - Watch: follow the wallet's account changes until the returned stop
//     func is called.
//   - Subscribe: register a listener for session changes.
type SessionService interface {
	Connect(ctx context.Context) (models.WalletSession, error)
	ResetConnection(ctx context.Context) (models.WalletSession, error)
	Disconnect(ctx context.Context) error
	AutoReconnect(ctx context.Context) (models.WalletSession, error)
	Current() models.WalletSession
	Balance(ctx context.Context) (*big.Int, error)
	// ConnectedAt reports when the user last connected on purpose, or the
	// zero time when no session is persisted.
	ConnectedAt(ctx context.Context) (time.Time, error)
	BalanceOf(ctx context.Context, address string) (*big.Int, error)
	Watch(ctx context.Context) (stop func(), err error)
	Subscribe(fn func(models.WalletSession)) (cancel func())
}

type sessionService struct {
	wallet  wallet.Provider
	store   SessionStore
	session *models.Session
	log     logging.Logger

	// connectMu serializes Connect and account-change updates so two
	// prompts are never open at once.
	connectMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(models.WalletSession)
	nextSub int
}

// NewSessionService binds the session to a wallet and a flag store. A nil
// wallet is allowed and makes every wallet operation fail with
// common.ErrWalletUnavailable.
func NewSessionService(w wallet.Provider, store SessionStore, session *models.Session, log logging.Logger) SessionService {
	if log == nil {
		log = logging.Discard()
	}
	return &sessionService{
		wallet:  w,
		store:   store,
		session: session,
		log:     log.With("component", "session"),
		subs:    make(map[int]func(models.WalletSession)),
	}
}

func (s *sessionService) Current() models.WalletSession {
	return s.session.Snapshot()
}

func (s *sessionService) Connect(ctx context.Context) (models.WalletSession, error) {
	if s.wallet == nil {
		return s.session.Snapshot(), common.ErrWalletUnavailable
	}

	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	if cur := s.session.Snapshot(); cur.Connected {
		accounts, err := s.wallet.Accounts(ctx)
		if err == nil && len(accounts) > 0 && models.SameAddress(accounts[0], cur.Address) {
			return cur, nil
		}
	}

	accounts, err := s.wallet.RequestAccounts(ctx)
	if err != nil {
		return s.session.Snapshot(), fmt.Errorf("connect: %w", err)
	}
	if len(accounts) == 0 {
		return s.session.Snapshot(), fmt.Errorf("connect: wallet returned no accounts: %w", common.ErrNotConnected)
	}

	return s.establish(ctx, accounts[0]), nil
}

// establish records a connected session for address. The session is usable
// even if the flag could not be persisted; it just will not auto-reconnect.
func (s *sessionService) establish(ctx context.Context, address string) models.WalletSession {
	persisted := true
	if s.store != nil {
		if err := s.store.MarkConnected(ctx); err != nil {
			s.log.Warn(ctx, "could not persist session flag", "error", err)
			persisted = false
		}
	}

	ws := models.WalletSession{Address: address, Connected: true, Persisted: persisted}
	prev := s.session.Snapshot()
	s.session.Set(ws)
	s.log.Info(ctx, "wallet connected", "address", address)

	if !models.SameAddress(prev.Address, ws.Address) || !prev.Connected {
		s.notify(ws)
	}
	return ws
}

func (s *sessionService) ResetConnection(ctx context.Context) (models.WalletSession, error) {
	if s.wallet == nil {
		return s.session.Snapshot(), common.ErrWalletUnavailable
	}

	if err := s.wallet.RequestPermissions(ctx); err != nil {
		s.log.Debug(ctx, "permission reset failed, connecting normally", "error", err)
	}
	return s.Connect(ctx)
}

func (s *sessionService) Disconnect(ctx context.Context) error {
	prev := s.session.Snapshot()
	s.session.Set(models.WalletSession{})

	if prev.Connected {
		s.log.Info(ctx, "wallet disconnected", "address", prev.Address)
		s.notify(models.WalletSession{})
	}

	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("disconnect: clear session flag: %w", err)
	}
	return nil
}

func (s *sessionService) AutoReconnect(ctx context.Context) (models.WalletSession, error) {
	if s.store == nil {
		return s.session.Snapshot(), nil
	}

	was, err := s.store.WasConnected(ctx)
	if err != nil {
		return s.session.Snapshot(), fmt.Errorf("auto-reconnect: %w", err)
	}
	if !was {
		return s.session.Snapshot(), nil
	}
	if s.wallet == nil {
		return s.session.Snapshot(), common.ErrWalletUnavailable
	}

	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	accounts, err := s.wallet.Accounts(ctx)
	if err != nil {
		return s.session.Snapshot(), fmt.Errorf("auto-reconnect: %w", err)
	}
	if len(accounts) == 0 {
		s.log.Info(ctx, "no authorized account, staying disconnected")
		return s.session.Snapshot(), nil
	}

	return s.establish(ctx, accounts[0]), nil
}

func (s *sessionService) Balance(ctx context.Context) (*big.Int, error) {
	addr, ok := s.session.Address()
	if !ok {
		return nil, common.ErrNotConnected
	}
	return s.BalanceOf(ctx, addr)
}

func (s *sessionService) ConnectedAt(ctx context.Context) (time.Time, error) {
	if s.store == nil {
		return time.Time{}, nil
	}
	return s.store.ConnectedAt(ctx)
}

// BalanceOf reads the balance of a specific account, whatever the session
// currently points at.
func (s *sessionService) BalanceOf(ctx context.Context, addr string) (*big.Int, error) {
	if addr == "" {
		return nil, common.ErrNotConnected
	}
	if s.wallet == nil {
		return nil, common.ErrWalletUnavailable
	}

	bal, err := s.wallet.Balance(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	return bal, nil
}

func (s *sessionService) Watch(ctx context.Context) (func(), error) {
	if s.wallet == nil {
		return nil, common.ErrWalletUnavailable
	}
	return s.wallet.SubscribeAccounts(ctx, func(accounts []string) {
		s.accountsChanged(ctx, accounts)
	})
}

// accountsChanged follows the wallet: another account means an implicit
// re-login, no account at all means disconnect. Changes while disconnected
// are ignored.
func (s *sessionService) accountsChanged(ctx context.Context, accounts []string) {
	if len(accounts) == 0 {
		if err := s.Disconnect(ctx); err != nil {
			s.log.Warn(ctx, "disconnect after account removal", "error", err)
		}
		return
	}

	s.connectMu.Lock()
	cur := s.session.Snapshot()
	if !cur.Connected || models.SameAddress(cur.Address, accounts[0]) {
		s.connectMu.Unlock()
		return
	}
	cur.Address = accounts[0]
	s.session.Set(cur)
	s.connectMu.Unlock()

	s.log.Info(ctx, "wallet account changed", "address", cur.Address)
	s.notify(cur)
}

func (s *sessionService) Subscribe(fn func(models.WalletSession)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *sessionService) notify(ws models.WalletSession) {
	s.subMu.Lock()
	fns := make([]func(models.WalletSession), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ws)
	}
}
