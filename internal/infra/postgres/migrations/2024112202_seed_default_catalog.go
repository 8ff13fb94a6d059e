package migrations

import (
	"context"
	"encoding/json"

	"ai-ops-scorecard/internal/domain"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			catalog := domain.DefaultCatalog()
			raw, err := json.Marshal(catalog)
			if err != nil {
				return err
			}
			_, err = db.ExecContext(ctx,
				`INSERT INTO catalogs (id, data) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
				catalog.ID, string(raw))
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM catalogs WHERE id = ?`, domain.DefaultCatalogID)
			return err
		},
	)
}
