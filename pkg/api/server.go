package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/hexphase/pkg/api/handlers"
	"github.com/cbodonnell/hexphase/pkg/api/middleware"
	"github.com/cbodonnell/hexphase/pkg/clients"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/repositories"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port int
	TLS  *TLSConfig
	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string
	Game           handlers.Enqueuer
	Snapshots      snapshot.Store
	ClientManager  *clients.ClientManager
	Repository     repositories.Repository
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter returns the API routes. Port and TLS are ignored.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging, middleware.NewCORSMiddleware(opts.AllowedOrigins...))

	r.HandleFunc("/state", handlers.HandleGetState(opts.Snapshots)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/events", handlers.HandleEvents(opts.ClientManager)).Methods(http.MethodGet)

	p := r.PathPrefix("/players/{playerID}").Subrouter()
	p.HandleFunc("/actions", handlers.HandleSubmitActions(opts.Game)).Methods(http.MethodPost, http.MethodOptions)
	p.HandleFunc("/complete", handlers.HandleCompleteActions(opts.Game)).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/end", handlers.HandleEndGame(opts.Game)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/save", handlers.HandleSave(opts.Game)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/saves", handlers.HandleListSaves(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/saves/{gameID}", handlers.HandleGetSave(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/saves/{gameID}", handlers.HandleDeleteSave(opts.Repository)).Methods(http.MethodDelete)

	return r
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
