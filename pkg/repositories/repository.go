package repositories

import (
	"context"

	"github.com/cbodonnell/hexphase/pkg/repositories/models"
)

type Repository interface {
	Close(ctx context.Context) error
	// SaveGame stores save, replacing any earlier save of the same game.
	SaveGame(ctx context.Context, save *models.SaveGame) error
	// LoadGame returns the save for gameID or ErrNotFound.
	LoadGame(ctx context.Context, gameID string) (*models.SaveGame, error)
	// LoadLatestGame returns the most recently saved game or ErrNotFound.
	LoadLatestGame(ctx context.Context) (*models.SaveGame, error)
	// ListGames returns a summary of every save, newest first.
	ListGames(ctx context.Context) ([]models.SaveSummary, error)
	DeleteGame(ctx context.Context, gameID string) error
}
