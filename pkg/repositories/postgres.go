package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/repositories/migrations"
	"github.com/cbodonnell/hexphase/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and applies the embedded migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := connectDb(ctx, connStr)
	if err != nil {
		return nil, err
	}

	err = applyMigrations(ctx, migrations.Postgres, "postgres", func(ctx context.Context, query string) error {
		_, err := conn.Exec(ctx, query)
		return err
	})
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func connectDb(ctx context.Context, connStr string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	log.Info("Connected to %s as %s", database, username)

	return conn, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveGame(ctx context.Context, save *models.SaveGame) error {
	data, err := encodeSave(save)
	if err != nil {
		return err
	}

	q := `
	INSERT INTO saves (game_id, turn, state, saved_at, data) VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (game_id) DO UPDATE SET turn = $2, state = $3, saved_at = $4, data = $5;
	`
	_, err = r.conn.Exec(ctx, q, save.ID, save.Turn, save.State, save.SavedAt.UnixMilli(), data)
	if err != nil {
		return fmt.Errorf("failed to insert save: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadGame(ctx context.Context, gameID string) (*models.SaveGame, error) {
	q := `
	SELECT data FROM saves WHERE game_id = $1;
	`
	return r.loadOne(ctx, q, gameID)
}

func (r *PostgresRepository) LoadLatestGame(ctx context.Context) (*models.SaveGame, error) {
	q := `
	SELECT data FROM saves ORDER BY saved_at DESC LIMIT 1;
	`
	return r.loadOne(ctx, q)
}

func (r *PostgresRepository) loadOne(ctx context.Context, q string, args ...interface{}) (*models.SaveGame, error) {
	var data []byte
	if err := r.conn.QueryRow(ctx, q, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan save: %v", err)
	}
	return decodeSave(data)
}

func (r *PostgresRepository) ListGames(ctx context.Context) ([]models.SaveSummary, error) {
	rows, err := r.conn.Query(ctx, "SELECT game_id, turn, state, saved_at FROM saves ORDER BY saved_at DESC")
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

func (r *PostgresRepository) DeleteGame(ctx context.Context, gameID string) error {
	tag, err := r.conn.Exec(ctx, "DELETE FROM saves WHERE game_id = $1", gameID)
	if err != nil {
		return fmt.Errorf("failed to delete save: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}
