package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/nepalipay/chain-middleware/pkg/core"
)

// UserDao maps to the 'users' table in PostgreSQL.
type UserDao struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Username      string    `bun:"username,unique,notnull,type:varchar(100)"`
	Email         string    `bun:"email,unique,notnull,type:varchar(255)"`
	WalletAddress *string   `bun:"wallet_address,type:varchar(100)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toUser(dao *UserDao) *core.User {
	usr := &core.User{
		ID:        dao.ID,
		Username:  dao.Username,
		Email:     dao.Email,
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}
	if dao.WalletAddress != nil {
		usr.WalletAddress = *dao.WalletAddress
	}
	return usr
}

// WalletDao maps to the 'wallets' table in PostgreSQL.
type WalletDao struct {
	bun.BaseModel `bun:"table:wallets,alias:w"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,unique,notnull"`
	Address       *string   `bun:"address,type:varchar(100)"`
	NPTBalance    *string   `bun:"npt_balance,nullzero,type:numeric(38,18)"`
	BNBBalance    *string   `bun:"bnb_balance,nullzero,type:numeric(38,18)"`
	Currency      string    `bun:"currency,notnull,default:'NPT',type:varchar(10)"`
	IsPrimary     bool      `bun:"is_primary,notnull,default:true"`
	LastUpdated   time.Time `bun:"last_updated,nullzero,default:current_timestamp"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toWalletDao(w *core.Wallet) *WalletDao {
	dao := &WalletDao{
		UserID:    w.UserID,
		Currency:  w.Currency,
		IsPrimary: w.IsPrimary,
	}
	if w.Address != "" {
		dao.Address = &w.Address
	}
	if w.NPTBalance != "" {
		dao.NPTBalance = &w.NPTBalance
	}
	if w.BNBBalance != "" {
		dao.BNBBalance = &w.BNBBalance
	}
	return dao
}

func toWallet(dao *WalletDao) *core.Wallet {
	w := &core.Wallet{
		ID:          dao.ID,
		UserID:      dao.UserID,
		Currency:    dao.Currency,
		IsPrimary:   dao.IsPrimary,
		LastUpdated: dao.LastUpdated,
		CreatedAt:   dao.CreatedAt,
		UpdatedAt:   dao.UpdatedAt,
	}
	if dao.Address != nil {
		w.Address = *dao.Address
	}
	if dao.NPTBalance != nil {
		w.NPTBalance = *dao.NPTBalance
	}
	if dao.BNBBalance != nil {
		w.BNBBalance = *dao.BNBBalance
	}
	return w
}

// TransactionDao maps to the 'transactions' table in PostgreSQL.
type TransactionDao struct {
	bun.BaseModel   `bun:"table:transactions,alias:t"`
	ID              int64     `bun:"id,pk,autoincrement"`
	Type            string    `bun:"type,notnull,type:varchar(30)"`
	Status          string    `bun:"status,notnull,type:varchar(20)"`
	Amount          string    `bun:"amount,notnull,type:numeric(38,18)"`
	Currency        string    `bun:"currency,notnull,default:'NPT',type:varchar(10)"`
	SenderID        *int64    `bun:"sender_id"`
	ReceiverID      *int64    `bun:"receiver_id"`
	TxHash          *string   `bun:"tx_hash,type:varchar(66)"`
	SenderAddress   *string   `bun:"sender_address,type:varchar(100)"`
	ReceiverAddress *string   `bun:"receiver_address,type:varchar(100)"`
	Description     *string   `bun:"description,type:text"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toTransactionDao(tx *core.Transaction) *TransactionDao {
	dao := &TransactionDao{
		Type:       tx.Type,
		Status:     tx.Status,
		Amount:     tx.Amount,
		Currency:   tx.Currency,
		SenderID:   tx.SenderID,
		ReceiverID: tx.ReceiverID,
	}
	if tx.TxHash != "" {
		dao.TxHash = &tx.TxHash
	}
	if tx.SenderAddress != "" {
		dao.SenderAddress = &tx.SenderAddress
	}
	if tx.ReceiverAddress != "" {
		dao.ReceiverAddress = &tx.ReceiverAddress
	}
	if tx.Description != "" {
		dao.Description = &tx.Description
	}
	return dao
}

// ActivityDao maps to the 'activities' table in PostgreSQL.
type ActivityDao struct {
	bun.BaseModel `bun:"table:activities,alias:a"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	Action        string    `bun:"action,notnull,type:varchar(100)"`
	Description   *string   `bun:"description,type:text"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toActivityDao(a *core.Activity) *ActivityDao {
	dao := &ActivityDao{
		UserID: a.UserID,
		Action: a.Action,
	}
	if a.Description != "" {
		dao.Description = &a.Description
	}
	return dao
}
