// Package wallet provisions custodial wallets for newly registered users.
package wallet

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nepalipay/chain-middleware/internal/metrics"
	"github.com/nepalipay/chain-middleware/pkg/config"
	"github.com/nepalipay/chain-middleware/pkg/core"
	"github.com/nepalipay/chain-middleware/pkg/keys"
	"github.com/nepalipay/chain-middleware/pkg/retryqueue"
	"github.com/nepalipay/chain-middleware/pkg/store"
)

// lockStripes bounds memory for per-user serialization.
const lockStripes = 64

// ChainRegistrar registers wallet addresses on the token contract.
type ChainRegistrar interface {
	RegisterUser(ctx context.Context, userID int64, walletAddress string) (string, error)
}

// JobQueue schedules failed chain writes for retry.
type JobQueue interface {
	AddJob(jobType retryqueue.JobType, payload any) string
}

// Service creates custodial wallets: keypair generation, encrypted key
// persistence, wallet and user rows, and background chain registration.
type Service struct {
	cfg      *config.WalletConfig
	store    store.Store
	keyStore keys.Store
	cipher   *keys.Cipher
	chain    ChainRegistrar
	queue    JobQueue
	logger   *zap.Logger

	locks [lockStripes]sync.Mutex
	wg    sync.WaitGroup
}

// NewService creates a wallet provisioning service.
func NewService(
	cfg *config.WalletConfig,
	st store.Store,
	keyStore keys.Store,
	cipher *keys.Cipher,
	chain ChainRegistrar,
	queue JobQueue,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		keyStore: keyStore,
		cipher:   cipher,
		chain:    chain,
		queue:    queue,
		logger:   logger,
	}
}

// CreateUserWallet provisions a wallet for a user. It is idempotent: a
// user who already has a wallet gets the existing one back. Chain
// registration runs in the background and its failure never fails the
// provisioning; a retry job picks it up instead.
func (s *Service) CreateUserWallet(ctx context.Context, userID int64) (*core.Wallet, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var rekey *core.Wallet
	if existing, err := s.store.GetWalletByUserID(ctx, userID); err == nil {
		if existing.Address != "" {
			s.logger.Info("User already has a wallet",
				zap.Int64("user_id", userID),
				zap.String("address", existing.Address))
			return existing, nil
		}
		// Row exists but was never given an address. Attach a fresh one
		// instead of inserting a second row.
		rekey = existing
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
	}

	s.logger.Info("Creating wallet", zap.Int64("user_id", userID))

	generated, err := keys.GenerateWallet()
	if err != nil {
		return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
	}

	encryptedKey, err := s.cipher.Encrypt([]byte(generated.PrivateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
	}

	if err := s.keyStore.SaveKey(ctx, generated.Address, encryptedKey); err != nil {
		return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
	}

	var created *core.Wallet
	if rekey != nil {
		if err := s.store.SetWalletAddress(ctx, userID, generated.Address); err != nil {
			return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
		}
		rekey.Address = generated.Address
		rekey.NPTBalance = "0"
		rekey.BNBBalance = "0"
		created = rekey
	} else {
		wallet := &core.Wallet{
			UserID:     userID,
			Address:    generated.Address,
			NPTBalance: "0",
			BNBBalance: "0",
			Currency:   s.currency(),
			IsPrimary:  true,
		}

		created, err = s.store.CreateWallet(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
		}
	}

	if err := s.store.SetUserWalletAddress(ctx, userID, created.Address); err != nil {
		return nil, fmt.Errorf("wallet creation for user %d: %w", userID, err)
	}

	metrics.WalletsProvisioned.Inc()
	s.logger.Info("Wallet created",
		zap.Int64("user_id", userID),
		zap.String("address", created.Address))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.registerOnChain(context.Background(), userID, created.Address)
	}()

	return created, nil
}

// Wait blocks until all background registrations have finished. Used at
// shutdown and by tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// registerOnChain makes the initial registration attempt. On failure the
// retry queue owns all further attempts.
func (s *Service) registerOnChain(ctx context.Context, userID int64, address string) {
	txHash, err := s.chain.RegisterUser(ctx, userID, address)
	if err != nil {
		s.logger.Error("Chain registration failed, scheduling retry",
			zap.Int64("user_id", userID),
			zap.String("address", address),
			zap.Error(err))

		jobID := s.queue.AddJob(retryqueue.JobRegisterUser, retryqueue.RegisterUserPayload{
			UserID:        userID,
			WalletAddress: address,
		})

		activity := &core.Activity{
			UserID:      userID,
			Action:      "blockchain_registration_failed",
			Description: fmt.Sprintf("Chain registration for %s failed, queued retry job %s: %v", address, jobID, err),
		}
		if aerr := s.store.CreateActivity(ctx, activity); aerr != nil {
			s.logger.Warn("Failed to record registration failure activity",
				zap.Int64("user_id", userID),
				zap.Error(aerr))
		}
		return
	}

	if txHash == "" {
		s.logger.Info("Chain registration skipped",
			zap.Int64("user_id", userID),
			zap.String("address", address))
		return
	}

	s.logger.Info("Chain registration confirmed",
		zap.Int64("user_id", userID),
		zap.String("tx_hash", txHash))
}

func (s *Service) userLock(userID int64) *sync.Mutex {
	return &s.locks[uint64(userID)%lockStripes]
}

func (s *Service) currency() string {
	if s.cfg != nil && s.cfg.DefaultCurrency != "" {
		return s.cfg.DefaultCurrency
	}
	return "NPT"
}
