// Package core holds the domain types shared across the sync subsystem.
package core

import "time"

// Transaction types recorded by the sync subsystem.
const (
	TxTypeTransfer = "transfer"
	TxTypeMint     = "mint"
	TxTypeBurn     = "burn"
	TxTypeTopup    = "topup"
)

// Transaction statuses.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// User is an application account. WalletAddress is set once the custodial
// wallet has been provisioned and is empty before that.
type User struct {
	ID            int64
	Username      string
	Email         string
	WalletAddress string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Wallet is the cached view of a user's custodial wallet. Balances are
// decimal strings in whole token units, refreshed from chain state.
type Wallet struct {
	ID          int64
	UserID      int64
	Address     string
	NPTBalance  string
	BNBBalance  string
	Currency    string
	IsPrimary   bool
	LastUpdated time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is a ledger row derived from an observed chain event or an
// admin-initiated operation. Sender/Receiver IDs are nil when the
// corresponding address does not belong to a known user.
type Transaction struct {
	ID              int64
	Type            string
	Status          string
	Amount          string
	Currency        string
	SenderID        *int64
	ReceiverID      *int64
	TxHash          string
	SenderAddress   string
	ReceiverAddress string
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Activity is an audit trail row.
type Activity struct {
	ID          int64
	UserID      int64
	Action      string
	Description string
	CreatedAt   time.Time
}
