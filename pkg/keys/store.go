package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// ErrKeyNotFound is returned when no key is stored for an address.
var ErrKeyNotFound = errors.New("wallet key not found")

// Store persists encrypted custodial private keys keyed by wallet address.
type Store interface {
	// SaveKey stores the encrypted key for an address, replacing any
	// previous value.
	SaveKey(ctx context.Context, address, encryptedKey string) error

	// GetKey returns the encrypted key for an address, or ErrKeyNotFound.
	GetKey(ctx context.Context, address string) (string, error)

	// HasKey reports whether a key is stored for an address.
	HasKey(ctx context.Context, address string) (bool, error)
}

// WalletKeyDao maps to the 'wallet_keys' table in PostgreSQL.
type WalletKeyDao struct {
	bun.BaseModel `bun:"table:wallet_keys,alias:wk"`
	Address       string    `bun:"address,pk,type:varchar(42)"`
	EncryptedKey  string    `bun:"encrypted_key,notnull,type:text"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the key store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) SaveKey(ctx context.Context, address, encryptedKey string) error {
	dao := &WalletKeyDao{Address: address, EncryptedKey: encryptedKey}

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (address) DO UPDATE").
		Set("encrypted_key = EXCLUDED.encrypted_key").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save wallet key: %w", err)
	}

	return nil
}

func (s *pgStore) GetKey(ctx context.Context, address string) (string, error) {
	dao := new(WalletKeyDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("address = ?", address).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get wallet key: %w", err)
	}

	return dao.EncryptedKey, nil
}

func (s *pgStore) HasKey(ctx context.Context, address string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*WalletKeyDao)(nil)).
		Where("address = ?", address).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check wallet key: %w", err)
	}
	return exists, nil
}

// MemoryStore implements Store using in-memory storage (for testing)
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewMemoryStore creates a new in-memory key store (for testing)
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]string)}
}

func (s *MemoryStore) SaveKey(_ context.Context, address, encryptedKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[address] = encryptedKey
	return nil
}

func (s *MemoryStore) GetKey(_ context.Context, address string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[address]
	if !ok {
		return "", ErrKeyNotFound
	}
	return key, nil
}

func (s *MemoryStore) HasKey(_ context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[address]
	return ok, nil
}
