package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				username VARCHAR(100) NOT NULL UNIQUE,
				email VARCHAR(255) NOT NULL UNIQUE,
				wallet_address VARCHAR(100),
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			-- Event handling resolves addresses case-insensitively; this
			-- index keeps that lookup off a sequential scan.
			CREATE UNIQUE INDEX IF NOT EXISTS users_wallet_address_lower_idx
				ON users (lower(wallet_address))
				WHERE wallet_address IS NOT NULL;
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS users;`)
		return err
	})
}
