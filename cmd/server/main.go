package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/hexphase/pkg/api"
	"github.com/cbodonnell/hexphase/pkg/clients"
	"github.com/cbodonnell/hexphase/pkg/config"
	"github.com/cbodonnell/hexphase/pkg/game"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/repositories"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
	"github.com/cbodonnell/hexphase/pkg/states"
	"github.com/cbodonnell/hexphase/pkg/version"
	"github.com/cbodonnell/hexphase/pkg/workers"
)

func main() {
	serverConfig, err := config.ParseServerEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to parse environment: %v", err))
	}

	port := flag.Int("port", serverConfig.Port, "Port to listen on")
	logLevel := flag.String("log-level", serverConfig.LogLevel, "Log level")
	gameConfigPath := flag.String("config", serverConfig.GameConfig, "Path to the game config")
	allowOrigin := flag.String("allow-origin", "", "Comma-separated list of allowed origins (empty allows all)")
	resume := flag.Bool("resume", true, "Resume the latest saved game if there is one")
	keepQueued := flag.Bool("keep-queued-actions", false, "Keep the actions of players who run out of time instead of skipping their turn")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameConfig, err := config.Load(*gameConfigPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load game config: %v", err))
	}

	repository, err := repositories.Open(ctx, serverConfig.DatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("Failed to open repository: %v", err))
	}
	defer repository.Close(context.Background())

	clientManager := clients.NewClientManager()
	snapshots := snapshot.NewInMemoryStore()

	broadcastMessageChannelSize := 1000
	broadcastMessageChan := make(chan workers.BroadcastMessage, broadcastMessageChannelSize)
	broadcastWorker := workers.NewEventBroadcastWorker(workers.NewEventBroadcastWorkerOptions{
		ClientManager:        clientManager,
		BroadcastMessageChan: broadcastMessageChan,
	})
	go broadcastWorker.Start(ctx)

	saveRequestChannelSize := 100
	saveRequestChan := make(chan workers.SaveRequest, saveRequestChannelSize)
	saveGameWorker := workers.NewSaveGameWorker(workers.NewSaveGameWorkerOptions{
		Repository:      repository,
		SaveRequestChan: saveRequestChan,
		Snapshots:       snapshots,
		Interval:        serverConfig.SaveInterval,
	})
	go saveGameWorker.Start(ctx)

	var autoComplete states.AutoCompletePolicy = states.SkipTurn{}
	if *keepQueued {
		autoComplete = states.KeepQueuedActions{}
	}
	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		AutoCompletePolicy:   autoComplete,
		Snapshots:            snapshots,
		SaveRequestChan:      saveRequestChan,
		BroadcastMessageChan: broadcastMessageChan,
	})
	if err := gameManager.Initialize(gameConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize game: %v", err))
	}
	if err := startOrResume(ctx, gameManager, repository, *resume); err != nil {
		panic(fmt.Sprintf("Failed to start game: %v", err))
	}

	var origins []string
	if *allowOrigin != "" {
		origins = strings.Split(*allowOrigin, ",")
	}
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:           *port,
		AllowedOrigins: origins,
		Game:           gameManager,
		Snapshots:      snapshots,
		ClientManager:  clientManager,
		Repository:     repository,
	})
	go apiServer.Start()

	log.Info("Starting game loop every %s", serverConfig.TickInterval)
	if err := gameManager.Start(ctx, serverConfig.TickInterval); err != nil {
		log.Error("Game loop stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
	if err := saveLatest(shutdownCtx, snapshots, repository); err != nil {
		log.Error("Failed to save game on shutdown: %v", err)
	}
	log.Info("Server stopped")
}

// startOrResume loads the latest unfinished save when resume is set and starts a new game otherwise.
func startOrResume(ctx context.Context, gm *game.GameManager, repository repositories.Repository, resume bool) error {
	if resume {
		save, err := repository.LoadLatestGame(ctx)
		switch {
		case err == nil && save.State != states.StateGameOver.String():
			log.Info("Resuming game %s at turn %d", save.ID, save.Turn)
			return gm.Load(save)
		case err == nil:
			log.Info("Latest game %s is over, starting a new one", save.ID)
		case repositories.IsNotFound(err):
			log.Info("No saved game, starting a new one")
		default:
			return fmt.Errorf("failed to load latest game: %v", err)
		}
	}
	return gm.StartGame()
}

func saveLatest(ctx context.Context, snapshots snapshot.Store, repository repositories.Repository) error {
	snap, err := snapshots.Get(ctx)
	if err != nil {
		return err
	}
	return repository.SaveGame(ctx, snap.SaveGame())
}
