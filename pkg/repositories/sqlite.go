package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/repositories/migrations"
	"github.com/cbodonnell/hexphase/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies the embedded migrations.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	err = applyMigrations(ctx, migrations.SQLite, "sqlite", func(ctx context.Context, query string) error {
		_, err := db.ExecContext(ctx, query)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveGame(ctx context.Context, save *models.SaveGame) error {
	data, err := encodeSave(save)
	if err != nil {
		return err
	}

	q := `
	INSERT OR REPLACE INTO saves (game_id, turn, state, saved_at, data)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q, save.ID, save.Turn, save.State, save.SavedAt.UnixMilli(), data)
	if err != nil {
		return fmt.Errorf("failed to insert save: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadGame(ctx context.Context, gameID string) (*models.SaveGame, error) {
	q := `
	SELECT data FROM saves WHERE game_id = ?;
	`
	return r.loadOne(ctx, q, gameID)
}

func (r *SQLiteRepository) LoadLatestGame(ctx context.Context) (*models.SaveGame, error) {
	q := `
	SELECT data FROM saves ORDER BY saved_at DESC, rowid DESC LIMIT 1;
	`
	return r.loadOne(ctx, q)
}

func (r *SQLiteRepository) loadOne(ctx context.Context, q string, args ...interface{}) (*models.SaveGame, error) {
	var data []byte
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan save: %v", err)
	}
	return decodeSave(data)
}

func (r *SQLiteRepository) ListGames(ctx context.Context) ([]models.SaveSummary, error) {
	q := `
	SELECT game_id, turn, state, saved_at FROM saves ORDER BY saved_at DESC, rowid DESC;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query saves: %v", err)
	}
	defer rows.Close()

	summaries := []models.SaveSummary{}
	for rows.Next() {
		var summary models.SaveSummary
		var savedAt int64
		if err := rows.Scan(&summary.ID, &summary.Turn, &summary.State, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan save: %v", err)
		}
		summary.SavedAt = time.UnixMilli(savedAt).UTC()
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saves: %v", err)
	}

	return summaries, nil
}

func (r *SQLiteRepository) DeleteGame(ctx context.Context, gameID string) error {
	q := `
	DELETE FROM saves WHERE game_id = ?;
	`
	res, err := r.db.ExecContext(ctx, q, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete save: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if n == 0 {
		return &ErrNotFound{}
	}
	return nil
}
