// Package app wires the server components together: record store,
// connection registry, relay, session handler and the REST surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"drawsync/internal/maintenance"
	"drawsync/pkg/api"
	"drawsync/pkg/auth"
	"drawsync/pkg/config"
	"drawsync/pkg/logger"
	"drawsync/pkg/metrics"
	"drawsync/pkg/registry"
	"drawsync/pkg/relay"
	"drawsync/pkg/session"
	"drawsync/pkg/store"
)

// App is the assembled server.
type App struct {
	cfg   *config.Config
	db    *store.DB
	srv   *http.Server
	maint *maintenance.Runner
}

// New opens the record store and builds the HTTP stack from cfg.
func New(cfg *config.Config) (*App, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	db, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, err
	}

	verifier := auth.NewHMACVerifier(cfg.Auth.JWTSecret)
	reg := registry.New()
	rl := relay.New(reg)
	sess := session.NewHandler(reg, rl, db, verifier, session.Options{
		HandshakeTimeout: cfg.Auth.HandshakeTimeout.Duration(),
		WriteTimeout:     cfg.Relay.WriteTimeout.Duration(),
		SendBuffer:       cfg.Relay.SendBuffer,
		MaxMessageSize:   cfg.Relay.MaxMessageSize.Int64(),
		RateRPS:          cfg.Relay.RateLimit.RPS,
		RateBurst:        cfg.Relay.RateLimit.Burst,
	})

	r := api.Router(db, verifier)
	r.Handle("/ws", sess)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))
	r.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, "docs/openapi.yaml")
	}).Methods(http.MethodGet)

	a := &App{
		cfg: cfg,
		db:  db,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if cfg.Maintenance.Enabled {
		mr, err := maintenance.New(db, cfg.Maintenance.Cron)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.maint = mr
	}
	return a, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// closes the record store.
func (a *App) Run(ctx context.Context) error {
	if a.maint != nil {
		a.maint.Start(ctx)
	}

	errc := make(chan error, 1)
	go func() {
		tls := a.cfg.Server.TLS
		if tls.CertFile != "" && tls.KeyFile != "" {
			logger.Info("server_listening", "addr", a.srv.Addr, "tls", true)
			errc <- a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
			return
		}
		logger.Info("server_listening", "addr", a.srv.Addr, "tls", false)
		errc <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		_ = a.db.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shCtx); err != nil {
		logger.Warn("server_shutdown_error", "error", err)
	}
	<-errc
	if err := a.db.Close(); err != nil {
		logger.Warn("store_close_error", "error", err)
	}
	logger.Info("server_stopped")
	return nil
}
