package listener

import (
	"context"

	"github.com/nepalipay/chain-middleware/pkg/chain"
	"github.com/nepalipay/chain-middleware/pkg/core"
	"github.com/nepalipay/chain-middleware/pkg/store"
)

// MockStore is a func-field implementation of store.Store.
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

// MockChainClient is a func-field implementation of ChainClient.
type MockChainClient struct {
	StartEventListenerFunc func(handler chain.EventHandler)
	StopEventListenerFunc  func()
	GetBalanceFunc         func(ctx context.Context, address string) string
	GetNativeBalanceFunc   func(ctx context.Context, address string) string
}

func (m *MockChainClient) StartEventListener(handler chain.EventHandler) {
	if m.StartEventListenerFunc != nil {
		m.StartEventListenerFunc(handler)
	}
}

func (m *MockChainClient) StopEventListener() {
	if m.StopEventListenerFunc != nil {
		m.StopEventListenerFunc()
	}
}

func (m *MockChainClient) GetBalance(ctx context.Context, address string) string {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, address)
	}
	return "0"
}

func (m *MockChainClient) GetNativeBalance(ctx context.Context, address string) string {
	if m.GetNativeBalanceFunc != nil {
		return m.GetNativeBalanceFunc(ctx, address)
	}
	return "0"
}
