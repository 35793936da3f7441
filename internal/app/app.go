package app

import (
	"context"
	"fmt"
	"time"

	"convostore/pkg/config"
	"convostore/pkg/logger"
	"convostore/pkg/retention"
	"convostore/pkg/store"
	"convostore/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	backend string
	version string

	srv *serverState
}

// New initializes resources that do not require a running context: the
// validation rules and the backend handle. It does not start the HTTP
// server; call Run to start it and block until shutdown.
func New(cfg *config.Config, addr string, memory bool, version string) (*App, error) {
	initValidation(cfg)

	a := &App{cfg: cfg, addr: addr, version: version}

	var b store.Backend
	if memory {
		a.backend = "memory"
		b = store.NewMemory()
	} else {
		ep, err := config.ParseQdrantURL(cfg.Qdrant.URL)
		if err != nil {
			return nil, err
		}
		a.backend = fmt.Sprintf("qdrant %s:%d (collection %s)", ep.Host, ep.Port, cfg.Qdrant.Collection)
		q, err := store.NewQdrant(store.QdrantOptions{
			Host:       ep.Host,
			Port:       ep.Port,
			UseTLS:     ep.UseTLS,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
		})
		if err != nil {
			return nil, err
		}
		b = q
	}
	store.Open(b)

	// Collection bootstrap is best-effort: a cold backend must not keep the
	// service from starting, /health reports the truth either way.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureCollection(ctx); err != nil {
		logger.Warn("collection_bootstrap_failed", "error", err)
	}

	return a, nil
}

// Backend describes the configured backend for the startup banner.
func (a *App) Backend() string { return a.backend }

// Run starts the retention runner (if enabled) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopRetention, err := retention.Start(ctx, a.cfg.Retention)
	if err != nil {
		return err
	}
	defer stopRetention()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		return a.stopHTTP()
	case err := <-errCh:
		return err
	}
}

// initValidation builds validation rules from config and sets them globally.
func initValidation(cfg *config.Config) {
	vr := validation.Rules{Types: map[string]string{}, MaxLen: map[string]int{}, Enums: map[string][]string{}}
	vr.Required = append(vr.Required, cfg.Validation.Required...)
	for _, t := range cfg.Validation.Types {
		vr.Types[t.Path] = t.Type
	}
	for _, ml := range cfg.Validation.MaxLen {
		vr.MaxLen[ml.Path] = ml.Max
	}
	for _, e := range cfg.Validation.Enums {
		vr.Enums[e.Path] = append([]string{}, e.Values...)
	}
	validation.SetRules(vr)
}
