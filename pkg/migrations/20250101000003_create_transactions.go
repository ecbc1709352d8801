package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS transactions (
				id BIGSERIAL PRIMARY KEY,
				type VARCHAR(30) NOT NULL,
				status VARCHAR(20) NOT NULL,
				amount NUMERIC(38,18) NOT NULL,
				currency VARCHAR(10) NOT NULL DEFAULT 'NPT',
				sender_id BIGINT REFERENCES users(id),
				receiver_id BIGINT REFERENCES users(id),
				tx_hash VARCHAR(66),
				sender_address VARCHAR(100),
				receiver_address VARCHAR(100),
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS transactions_tx_hash_idx ON transactions (tx_hash);
			CREATE INDEX IF NOT EXISTS transactions_sender_id_idx ON transactions (sender_id);
			CREATE INDEX IF NOT EXISTS transactions_receiver_id_idx ON transactions (receiver_id);
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS transactions;`)
		return err
	})
}
