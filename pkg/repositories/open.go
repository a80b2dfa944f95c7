package repositories

import (
	"context"
	"fmt"
	"strings"
)

// Open returns the repository for databaseURL. "sqlite://<path>" selects SQLite,
// "postgres://" and "postgresql://" select Postgres.
func Open(ctx context.Context, databaseURL string) (Repository, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteRepository(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresRepository(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database url %q", databaseURL)
	}
}
