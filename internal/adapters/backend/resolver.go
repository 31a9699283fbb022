// Package backend adapts the uniform sync protocol to the supported databases:
// Postgres/Neon and PlanetScale MySQL through sqlx, MongoDB through the official
// driver, and Supabase through PostgREST.
package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/ports"
)

// Open connects a store for the given credentials.
func Open(ctx context.Context, creds entities.Credentials, log *logger.Logger) (ports.CollectionStore, error) {
	switch kind := creds.Kind(); kind {
	case entities.BackendPostgres:
		return openPostgres(ctx, creds.DatabaseURL, log)
	case entities.BackendMongo:
		return openMongo(ctx, creds.DatabaseURL, log)
	case entities.BackendMySQL:
		return openMySQL(ctx, creds, log)
	case entities.BackendSupabase:
		return openSupabase(creds.SupabaseURL, creds.SupabaseKey, log)
	default:
		return nil, entities.ErrNoCredentials
	}
}

// Resolver resolves request credentials to an open store. Header credentials
// take priority; the environment fallback applies when a request carries none.
// One open client is cached, keyed by the full credential string, and the
// previous client is closed whenever the credentials change.
type Resolver struct {
	env    entities.Credentials
	open   func(ctx context.Context, creds entities.Credentials, log *logger.Logger) (ports.CollectionStore, error)
	logger *logger.Logger

	mu    sync.Mutex
	key   string
	store ports.CollectionStore
}

// NewResolver creates a resolver with the given environment fallback.
func NewResolver(env entities.Credentials, log *logger.Logger) *Resolver {
	return &Resolver{env: env, open: Open, logger: log.WithComponent("resolver")}
}

// Resolve returns a store for the request credentials, reusing the cached
// client when possible.
func (r *Resolver) Resolve(ctx context.Context, creds entities.Credentials) (ports.CollectionStore, error) {
	if creds.Empty() {
		creds = r.env
	}
	if creds.Empty() {
		return nil, entities.ErrNoCredentials
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil && r.key == creds.Key() {
		return r.store, nil
	}

	if r.store != nil {
		if err := r.store.Close(ctx); err != nil {
			r.logger.Warnw("Failed to close previous backend client", "error", err)
		}
		r.store = nil
		r.key = ""
	}

	store, err := r.open(ctx, creds, r.logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	r.store = store
	r.key = creds.Key()
	r.logger.Infow("Backend client opened", "backend", string(creds.Kind()))
	return store, nil
}

// Close releases the cached client, if any.
func (r *Resolver) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		return nil
	}
	err := r.store.Close(ctx)
	r.store = nil
	r.key = ""
	return err
}
