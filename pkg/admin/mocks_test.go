package admin

import (
	"context"

	"github.com/nepalipay/chain-middleware/pkg/chain"
	"github.com/nepalipay/chain-middleware/pkg/core"
	"github.com/nepalipay/chain-middleware/pkg/listener"
	"github.com/nepalipay/chain-middleware/pkg/retryqueue"
	"github.com/nepalipay/chain-middleware/pkg/store"
)

// MockChainService is a func-field implementation of ChainService.
type MockChainService struct {
	GetNetworkStatusFunc      func(ctx context.Context) chain.NetworkStatus
	ValidateConfigurationFunc func() chain.ConfigurationStatus
	IsRegisteredFunc          func(ctx context.Context, address string) bool
	RegisterUserFunc          func(ctx context.Context, userID int64, walletAddress string) (string, error)
}

func (m *MockChainService) GetNetworkStatus(ctx context.Context) chain.NetworkStatus {
	if m.GetNetworkStatusFunc != nil {
		return m.GetNetworkStatusFunc(ctx)
	}
	return chain.NetworkStatus{}
}

func (m *MockChainService) ValidateConfiguration() chain.ConfigurationStatus {
	if m.ValidateConfigurationFunc != nil {
		return m.ValidateConfigurationFunc()
	}
	return chain.ConfigurationStatus{Valid: true}
}

func (m *MockChainService) IsRegistered(ctx context.Context, address string) bool {
	if m.IsRegisteredFunc != nil {
		return m.IsRegisteredFunc(ctx, address)
	}
	return false
}

func (m *MockChainService) RegisterUser(ctx context.Context, userID int64, walletAddress string) (string, error) {
	if m.RegisterUserFunc != nil {
		return m.RegisterUserFunc(ctx, userID, walletAddress)
	}
	return "", nil
}

// MockListenerService is a func-field implementation of ListenerService.
type MockListenerService struct {
	GetStatusFunc func() listener.Status
	RestartFunc   func()
}

func (m *MockListenerService) GetStatus() listener.Status {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc()
	}
	return listener.Status{}
}

func (m *MockListenerService) Restart() {
	if m.RestartFunc != nil {
		m.RestartFunc()
	}
}

// MockRetryQueue is a func-field implementation of RetryQueueService.
type MockRetryQueue struct {
	StatsFunc     func() retryqueue.Stats
	JobsFunc      func() []retryqueue.Job
	RemoveJobFunc func(jobID string) bool
	AddJobFunc    func(jobType retryqueue.JobType, payload any) string
}

func (m *MockRetryQueue) Stats() retryqueue.Stats {
	if m.StatsFunc != nil {
		return m.StatsFunc()
	}
	return retryqueue.Stats{JobsByType: map[string]int{}}
}

func (m *MockRetryQueue) Jobs() []retryqueue.Job {
	if m.JobsFunc != nil {
		return m.JobsFunc()
	}
	return nil
}

func (m *MockRetryQueue) RemoveJob(jobID string) bool {
	if m.RemoveJobFunc != nil {
		return m.RemoveJobFunc(jobID)
	}
	return false
}

func (m *MockRetryQueue) AddJob(jobType retryqueue.JobType, payload any) string {
	if m.AddJobFunc != nil {
		return m.AddJobFunc(jobType, payload)
	}
	return "job_test"
}

// MockBalanceRefresher is a func-field implementation of BalanceRefresher.
type MockBalanceRefresher struct {
	UpdateWalletBalancesFunc func(ctx context.Context, userID int64) (*core.Wallet, error)
}

func (m *MockBalanceRefresher) UpdateWalletBalances(ctx context.Context, userID int64) (*core.Wallet, error) {
	if m.UpdateWalletBalancesFunc != nil {
		return m.UpdateWalletBalancesFunc(ctx, userID)
	}
	return nil, nil
}

// MockProvisioner is a func-field implementation of WalletProvisioner.
type MockProvisioner struct {
	CreateUserWalletFunc func(ctx context.Context, userID int64) (*core.Wallet, error)
}

func (m *MockProvisioner) CreateUserWallet(ctx context.Context, userID int64) (*core.Wallet, error) {
	if m.CreateUserWalletFunc != nil {
		return m.CreateUserWalletFunc(ctx, userID)
	}
	return nil, nil
}

// MockStore is a func-field implementation of store.Store. Only the
// wallet lookup is exercised by these handlers.
type MockStore struct {
	GetUserFunc                func(ctx context.Context, id int64) (*core.User, error)
	GetUserByWalletAddressFunc func(ctx context.Context, address string) (*core.User, error)
	SetUserWalletAddressFunc   func(ctx context.Context, userID int64, address string) error
	ListUsersWithWalletsFunc   func(ctx context.Context) ([]*core.User, error)
	GetWalletByUserIDFunc      func(ctx context.Context, userID int64) (*core.Wallet, error)
	CreateWalletFunc           func(ctx context.Context, wallet *core.Wallet) (*core.Wallet, error)
	UpdateWalletBalancesFunc   func(ctx context.Context, userID int64, nptBalance, bnbBalance string) error
	SetWalletAddressFunc       func(ctx context.Context, userID int64, address string) error
	CreateTransactionFunc      func(ctx context.Context, tx *core.Transaction) error
	CreateActivityFunc         func(ctx context.Context, activity *core.Activity) error
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (*core.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, store.ErrUserNotFound
}

func (m *MockStore) GetUserByWalletAddress(ctx context.Context, address string) (*core.User, error) {
	if m.GetUserByWalletAddressFunc != nil {
		return m.GetUserByWalletAddressFunc(ctx, address)
	}
	return nil, store.ErrUserNotFound
}

func (m *MockStore) SetUserWalletAddress(ctx context.Context, userID int64, address string) error {
	if m.SetUserWalletAddressFunc != nil {
		return m.SetUserWalletAddressFunc(ctx, userID, address)
	}
	return nil
}

func (m *MockStore) ListUsersWithWallets(ctx context.Context) ([]*core.User, error) {
	if m.ListUsersWithWalletsFunc != nil {
		return m.ListUsersWithWalletsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) GetWalletByUserID(ctx context.Context, userID int64) (*core.Wallet, error) {
	if m.GetWalletByUserIDFunc != nil {
		return m.GetWalletByUserIDFunc(ctx, userID)
	}
	return nil, store.ErrWalletNotFound
}

func (m *MockStore) CreateWallet(ctx context.Context, wallet *core.Wallet) (*core.Wallet, error) {
	if m.CreateWalletFunc != nil {
		return m.CreateWalletFunc(ctx, wallet)
	}
	return wallet, nil
}

func (m *MockStore) UpdateWalletBalances(ctx context.Context, userID int64, nptBalance, bnbBalance string) error {
	if m.UpdateWalletBalancesFunc != nil {
		return m.UpdateWalletBalancesFunc(ctx, userID, nptBalance, bnbBalance)
	}
	return nil
}

func (m *MockStore) SetWalletAddress(ctx context.Context, userID int64, address string) error {
	if m.SetWalletAddressFunc != nil {
		return m.SetWalletAddressFunc(ctx, userID, address)
	}
	return nil
}

func (m *MockStore) CreateTransaction(ctx context.Context, tx *core.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) CreateActivity(ctx context.Context, activity *core.Activity) error {
	if m.CreateActivityFunc != nil {
		return m.CreateActivityFunc(ctx, activity)
	}
	return nil
}
