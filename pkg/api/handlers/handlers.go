package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cbodonnell/hexphase/pkg/game"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/repositories"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
	"github.com/gorilla/mux"
)

// CommandTimeout bounds how long a request waits for the game loop to apply its command.
const CommandTimeout = 5 * time.Second

// Enqueuer hands commands to the game loop.
type Enqueuer interface {
	Enqueue(cmd game.Command) error
}

type SubmitActionsRequest struct {
	Actions  []players.Action `json:"actions"`
	Complete bool             `json:"complete"`
}

type EndGameRequest struct {
	Reason string `json:"reason"`
}

func HandleGetState(snapshots snapshot.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := snapshots.Get(r.Context())
		if err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				http.Error(w, "Game has not started", http.StatusServiceUnavailable)
				return
			}
			log.Error("failed to get snapshot: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func HandleSubmitActions(g Enqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := SubmitActionsRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to decode request body", http.StatusBadRequest)
			return
		}
		result := make(chan error, 1)
		cmd := game.SubmitActionsCommand{
			PlayerID: mux.Vars(r)["playerID"],
			Actions:  req.Actions,
			Complete: req.Complete,
			Result:   result,
		}
		if err := runCommand(r.Context(), g, cmd, result); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleCompleteActions(g Enqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := make(chan error, 1)
		cmd := game.CompleteActionsCommand{
			PlayerID: mux.Vars(r)["playerID"],
			Result:   result,
		}
		if err := runCommand(r.Context(), g, cmd, result); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSave asks the game loop for a save. The write itself happens on the save worker,
// so a successful hand-off answers 202.
func HandleSave(g Enqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := make(chan error, 1)
		if err := runCommand(r.Context(), g, game.SaveCommand{Result: result}, result); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func HandleEndGame(g Enqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := EndGameRequest{}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Failed to decode request body", http.StatusBadRequest)
				return
			}
		}
		if req.Reason == "" {
			req.Reason = "ended by host"
		}
		result := make(chan error, 1)
		if err := runCommand(r.Context(), g, game.EndGameCommand{Reason: req.Reason, Result: result}, result); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListSaves(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saves, err := repository.ListGames(r.Context())
		if err != nil {
			log.Error("failed to list saves: %v", err)
			http.Error(w, "Failed to list saves", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, saves)
	}
}

func HandleGetSave(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		save, err := repository.LoadGame(r.Context(), mux.Vars(r)["gameID"])
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Save not found", http.StatusNotFound)
				return
			}
			log.Error("failed to load save: %v", err)
			http.Error(w, "Failed to load save", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, save)
	}
}

func HandleDeleteSave(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repository.DeleteGame(r.Context(), mux.Vars(r)["gameID"]); err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Save not found", http.StatusNotFound)
				return
			}
			log.Error("failed to delete save: %v", err)
			http.Error(w, "Failed to delete save", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// runCommand enqueues cmd and waits for the game loop to report its result.
func runCommand(ctx context.Context, g Enqueuer, cmd game.Command, result <-chan error) error {
	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()

	if err := g.Enqueue(cmd); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeCommandError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrUnknownPlayer):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrNotAcceptingInput), errors.Is(err, game.ErrActionsAlreadyCompleted):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvalidActions):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		log.Error("command failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
