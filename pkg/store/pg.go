package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/nepalipay/chain-middleware/pkg/core"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) GetUser(ctx context.Context, id int64) (*core.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) GetUserByWalletAddress(ctx context.Context, address string) (*core.User, error) {
	dao := new(UserDao)
	// Served by the expression index on lower(wallet_address).
	err := s.db.NewSelect().
		Model(dao).
		Where("lower(wallet_address) = lower(?)", address).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by wallet address: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) SetUserWalletAddress(ctx context.Context, userID int64, address string) error {
	res, err := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("wallet_address = ?", address).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set wallet address: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *pgStore) ListUsersWithWallets(ctx context.Context) ([]*core.User, error) {
	var daos []UserDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("wallet_address IS NOT NULL AND wallet_address != ''").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with wallets: %w", err)
	}

	users := make([]*core.User, len(daos))
	for i := range daos {
		users[i] = toUser(&daos[i])
	}
	return users, nil
}

func (s *pgStore) GetWalletByUserID(ctx context.Context, userID int64) (*core.Wallet, error) {
	dao := new(WalletDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return toWallet(dao), nil
}

func (s *pgStore) CreateWallet(ctx context.Context, wallet *core.Wallet) (*core.Wallet, error) {
	dao := toWalletDao(wallet)

	res, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (user_id) DO NOTHING").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		// Lost the race with a concurrent create. The existing row wins.
		return s.GetWalletByUserID(ctx, wallet.UserID)
	}

	return toWallet(dao), nil
}

func (s *pgStore) SetWalletAddress(ctx context.Context, userID int64, address string) error {
	res, err := s.db.NewUpdate().
		Model((*WalletDao)(nil)).
		Set("address = ?", address).
		Set("npt_balance = ?", "0").
		Set("bnb_balance = ?", "0").
		Set("last_updated = NOW()").
		Set("updated_at = NOW()").
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set wallet address: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (s *pgStore) UpdateWalletBalances(ctx context.Context, userID int64, nptBalance, bnbBalance string) error {
	res, err := s.db.NewUpdate().
		Model((*WalletDao)(nil)).
		Set("npt_balance = ?", nptBalance).
		Set("bnb_balance = ?", bnbBalance).
		Set("last_updated = NOW()").
		Set("updated_at = NOW()").
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update wallet balances: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (s *pgStore) CreateTransaction(ctx context.Context, tx *core.Transaction) error {
	dao := toTransactionDao(tx)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (s *pgStore) CreateActivity(ctx context.Context, activity *core.Activity) error {
	dao := toActivityDao(activity)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}
