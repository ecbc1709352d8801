// Package reconciler keeps cached wallet balances in line with chain
// state. The chain is authoritative: reconciliation always re-reads
// absolute balances, never applies deltas.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nepalipay/chain-middleware/internal/metrics"
	"github.com/nepalipay/chain-middleware/pkg/core"
	"github.com/nepalipay/chain-middleware/pkg/store"
)

// cycleTimeout bounds one periodic reconciliation pass.
const cycleTimeout = 2 * time.Minute

// ChainReader provides balance reads for reconciliation.
type ChainReader interface {
	GetBalance(ctx context.Context, address string) string
	GetNativeBalance(ctx context.Context, address string) string
}

// Reconciler refreshes cached balances on demand and on a timer.
type Reconciler struct {
	store  store.Store
	chain  ChainReader
	logger *zap.Logger

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a new Reconciler
func New(st store.Store, chain ChainReader, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:  st,
		chain:  chain,
		logger: logger,
	}
}

// UpdateWalletBalances re-reads a user's chain balances and stores them.
// A user with no wallet or no address is a no-op returning nil.
func (r *Reconciler) UpdateWalletBalances(ctx context.Context, userID int64) (*core.Wallet, error) {
	wallet, err := r.store.GetWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrWalletNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reconcile user %d: %w", userID, err)
	}
	if wallet.Address == "" {
		return nil, nil
	}

	npt := r.chain.GetBalance(ctx, wallet.Address)
	bnb := r.chain.GetNativeBalance(ctx, wallet.Address)

	if err := r.store.UpdateWalletBalances(ctx, userID, npt, bnb); err != nil {
		return nil, fmt.Errorf("reconcile user %d: %w", userID, err)
	}

	metrics.BalancesRefreshed.Inc()

	wallet.NPTBalance = npt
	wallet.BNBBalance = bnb
	return wallet, nil
}

// ReconcileAll refreshes balances for every user holding a wallet.
// Per-user failures are logged and counted; only listing failures abort
// the pass.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	r.logger.Info("Starting balance reconciliation")
	start := time.Now()

	users, err := r.store.ListUsersWithWallets(ctx)
	if err != nil {
		metrics.ReconciliationRuns.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to list wallet users: %w", err)
	}

	var updated, failed int
	for _, usr := range users {
		if ctx.Err() != nil {
			metrics.ReconciliationRuns.WithLabelValues("cancelled").Inc()
			return ctx.Err()
		}

		if _, err := r.UpdateWalletBalances(ctx, usr.ID); err != nil {
			failed++
			r.logger.Warn("Failed to reconcile wallet",
				zap.Int64("user_id", usr.ID),
				zap.Error(err))
			continue
		}
		updated++
	}

	metrics.ReconciliationRuns.WithLabelValues("success").Inc()
	r.logger.Info("Balance reconciliation completed",
		zap.Int("users", len(users)),
		zap.Int("updated", updated),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// StartPeriodic starts a background goroutine that reconciles on a
// timer. Calling StartPeriodic on a running reconciler is a no-op.
func (r *Reconciler) StartPeriodic(interval time.Duration) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger.Info("Started periodic reconciliation", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
				if err := r.ReconcileAll(ctx); err != nil {
					r.logger.Error("Periodic reconciliation failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("Stopping periodic reconciliation")
				return
			}
		}
	}()
}

// Stop stops the periodic reconciliation. Stopping an already stopped
// (or never started) reconciler is a no-op.
func (r *Reconciler) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if !r.running {
		return
	}
	close(r.stopCh)
	r.wg.Wait()
	r.running = false
}
