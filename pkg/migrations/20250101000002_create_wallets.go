package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS wallets (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
				address VARCHAR(100),
				npt_balance NUMERIC(38,18),
				bnb_balance NUMERIC(38,18),
				currency VARCHAR(10) NOT NULL DEFAULT 'NPT',
				is_primary BOOLEAN NOT NULL DEFAULT TRUE,
				last_updated TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS wallets;`)
		return err
	})
}
