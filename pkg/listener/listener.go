// Package listener consumes token contract events and folds them into the
// local database: balance refreshes, ledger rows, and registration
// confirmations. Handler errors are logged and swallowed so one bad event
// cannot stall the stream.
package listener

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nepalipay/chain-middleware/internal/metrics"
	"github.com/nepalipay/chain-middleware/pkg/chain"
	"github.com/nepalipay/chain-middleware/pkg/core"
	"github.com/nepalipay/chain-middleware/pkg/store"
)

// ChainClient is the chain surface the listener needs.
type ChainClient interface {
	StartEventListener(handler chain.EventHandler)
	StopEventListener()
	GetBalance(ctx context.Context, address string) string
	GetNativeBalance(ctx context.Context, address string) string
}

// Listener bridges chain events into the store.
type Listener struct {
	chain  ChainClient
	store  store.Store
	logger *zap.Logger

	mu        sync.Mutex
	listening bool
}

// Status reports whether the listener is running.
type Status struct {
	Listening bool     `json:"listening"`
	Handlers  []string `json:"handlers"`
}

// New creates a listener. Start must be called to begin consuming events.
func New(chainClient ChainClient, st store.Store, logger *zap.Logger) *Listener {
	return &Listener{
		chain:  chainClient,
		store:  st,
		logger: logger,
	}
}

// Start begins consuming chain events. Idempotent.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listening {
		l.logger.Info("Event listener already running")
		return
	}

	l.chain.StartEventListener(l)
	l.listening = true
	l.logger.Info("Event listener started")
}

// Stop halts event consumption. Idempotent.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.listening {
		return
	}

	l.chain.StopEventListener()
	l.listening = false
	l.logger.Info("Event listener stopped")
}

// Restart stops and starts the listener. Used by the admin surface after
// RPC configuration trouble.
func (l *Listener) Restart() {
	l.Stop()
	l.Start()
}

// GetStatus reports the listener state.
func (l *Listener) GetStatus() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		Listening: l.listening,
		Handlers:  []string{"Transfer", "UserRegistered"},
	}
}

// HandleTransfer refreshes cached balances for both sides of a transfer
// and records a ledger row when at least one side is a known user.
// Events between two unknown addresses are dropped.
func (l *Listener) HandleTransfer(from, to, amount, txHash string) {
	ctx := context.Background()

	l.logger.Info("Transfer detected",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount),
		zap.String("tx_hash", txHash))

	fromUser := l.userByAddress(ctx, from)
	toUser := l.userByAddress(ctx, to)

	if fromUser == nil && toUser == nil {
		metrics.EventsProcessed.WithLabelValues("transfer", "dropped").Inc()
		return
	}

	if fromUser != nil {
		l.refreshBalances(ctx, fromUser.ID)
	}
	if toUser != nil {
		l.refreshBalances(ctx, toUser.ID)
	}

	tx := &core.Transaction{
		Type:            core.TxTypeTransfer,
		Status:          core.TxStatusCompleted,
		Amount:          amount,
		Currency:        "NPT",
		TxHash:          txHash,
		SenderAddress:   from,
		ReceiverAddress: to,
		Description:     "NPT Transfer: " + amount + " NPT",
	}
	if fromUser != nil {
		tx.SenderID = &fromUser.ID
	}
	if toUser != nil {
		tx.ReceiverID = &toUser.ID
	}

	if err := l.store.CreateTransaction(ctx, tx); err != nil {
		l.logger.Error("Failed to record transfer transaction",
			zap.String("tx_hash", txHash),
			zap.Error(err))
		metrics.EventsProcessed.WithLabelValues("transfer", "error").Inc()
		return
	}

	metrics.EventsProcessed.WithLabelValues("transfer", "processed").Inc()
}

// HandleUserRegistered stamps the confirmed wallet address onto the user
// row. Events for unknown user IDs are dropped.
func (l *Listener) HandleUserRegistered(userID int64, walletAddress, txHash string) {
	ctx := context.Background()

	l.logger.Info("User registration confirmed",
		zap.Int64("user_id", userID),
		zap.String("address", walletAddress),
		zap.String("tx_hash", txHash))

	if _, err := l.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			metrics.EventsProcessed.WithLabelValues("user_registered", "dropped").Inc()
			return
		}
		l.logger.Error("Failed to look up registered user",
			zap.Int64("user_id", userID),
			zap.Error(err))
		metrics.EventsProcessed.WithLabelValues("user_registered", "error").Inc()
		return
	}

	if err := l.store.SetUserWalletAddress(ctx, userID, walletAddress); err != nil {
		l.logger.Error("Failed to confirm registration",
			zap.Int64("user_id", userID),
			zap.Error(err))
		metrics.EventsProcessed.WithLabelValues("user_registered", "error").Inc()
		return
	}

	metrics.EventsProcessed.WithLabelValues("user_registered", "processed").Inc()
}

// userByAddress resolves an address to a user, or nil when unknown.
func (l *Listener) userByAddress(ctx context.Context, address string) *core.User {
	usr, err := l.store.GetUserByWalletAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			l.logger.Error("Failed to resolve wallet address",
				zap.String("address", address),
				zap.Error(err))
		}
		return nil
	}
	return usr
}

// refreshBalances re-reads chain state for a user's wallet. Balances are
// always absolute reads, never deltas derived from event values.
func (l *Listener) refreshBalances(ctx context.Context, userID int64) {
	wallet, err := l.store.GetWalletByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrWalletNotFound) {
			l.logger.Error("Failed to load wallet for balance refresh",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
		return
	}
	if wallet.Address == "" {
		return
	}

	npt := l.chain.GetBalance(ctx, wallet.Address)
	bnb := l.chain.GetNativeBalance(ctx, wallet.Address)

	if err := l.store.UpdateWalletBalances(ctx, userID, npt, bnb); err != nil {
		l.logger.Error("Failed to update wallet balances",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return
	}

	metrics.BalancesRefreshed.Inc()
	l.logger.Info("Updated balances from chain",
		zap.Int64("user_id", userID),
		zap.String("npt_balance", npt),
		zap.String("bnb_balance", bnb))
}
