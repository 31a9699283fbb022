package services

import (
	"context"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/ports"
)

// SyncService executes list-all and replace-all against whichever backend the
// request credentials resolve to.
type SyncService struct {
	resolver ports.StoreResolver
	logger   *logger.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(resolver ports.StoreResolver, log *logger.Logger) *SyncService {
	return &SyncService{resolver: resolver, logger: log}
}

// ListAll returns every record in the collection.
func (s *SyncService) ListAll(ctx context.Context, creds entities.Credentials, col entities.Collection) ([]entities.Record, error) {
	store, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	records, err := store.ListAll(ctx, col)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("Collection listed", "collection", col.String(), "records", len(records))
	return records, nil
}

// ReplaceAll replaces the collection wholesale with the given records. An empty
// list clears the collection.
func (s *SyncService) ReplaceAll(ctx context.Context, creds entities.Credentials, col entities.Collection, records []entities.Record) error {
	store, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return err
	}

	if err := store.ReplaceAll(ctx, col, records); err != nil {
		return err
	}

	s.logger.Infow("Collection replaced", "collection", col.String(), "records", len(records))
	return nil
}
