package migrations

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-buy-ranking/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded kv_store schema in lexical order.
// Every file is idempotent, so it is safe to run on each startup.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, m := range files {
		// pgx runs multi-statement text through the simple protocol.
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		logger.Info("applied postgres migration", zap.String("file", m.Name))
		applied = append(applied, m.Name)
	}
	return applied, nil
}
