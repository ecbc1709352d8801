// Package store provides Postgres persistence for users, wallets,
// transactions and activities.
package store

import (
	"context"
	"errors"

	"github.com/nepalipay/chain-middleware/pkg/core"
)

// ErrUserNotFound is returned when a user lookup finds no matching record.
var ErrUserNotFound = errors.New("user not found")

// ErrWalletNotFound is returned when a wallet lookup finds no matching record.
var ErrWalletNotFound = errors.New("wallet not found")

// UserStore defines user persistence operations.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*core.User, error)

	// GetUserByWalletAddress resolves an on-chain address to its owner.
	// The lookup is case-insensitive and index-backed.
	GetUserByWalletAddress(ctx context.Context, address string) (*core.User, error)

	// SetUserWalletAddress stamps the provisioned address onto the user row.
	SetUserWalletAddress(ctx context.Context, userID int64, address string) error

	// ListUsersWithWallets returns all users holding a wallet address.
	ListUsersWithWallets(ctx context.Context) ([]*core.User, error)
}

// WalletStore defines wallet cache persistence operations.
type WalletStore interface {
	GetWalletByUserID(ctx context.Context, userID int64) (*core.Wallet, error)

	// CreateWallet inserts a wallet. The table's unique constraint on
	// user_id makes this idempotent: if a wallet already exists for the
	// user, the existing row is returned instead.
	CreateWallet(ctx context.Context, wallet *core.Wallet) (*core.Wallet, error)

	// UpdateWalletBalances writes refreshed chain balances for a user's wallet.
	UpdateWalletBalances(ctx context.Context, userID int64, nptBalance, bnbBalance string) error

	// SetWalletAddress attaches a freshly generated address to an
	// address-less wallet row and resets its balances to zero.
	SetWalletAddress(ctx context.Context, userID int64, address string) error
}

// TransactionStore defines ledger row persistence.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *core.Transaction) error
}

// ActivityStore defines audit trail persistence.
type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *core.Activity) error
}

// Store is the full persistence surface of the sync subsystem.
type Store interface {
	UserStore
	WalletStore
	TransactionStore
	ActivityStore
}
