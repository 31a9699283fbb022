package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

// supabaseStore implements CollectionStore against a Supabase project's
// PostgREST endpoint. Tables must exist with the entity columns; Supabase does
// not allow DDL through PostgREST.
type supabaseStore struct {
	client *postgrest.Client
	logger *logger.Logger
}

func openSupabase(projectURL, key string, log *logger.Logger) (*supabaseStore, error) {
	rest := strings.TrimSuffix(projectURL, "/") + "/rest/v1"
	client := postgrest.NewClient(rest, "", map[string]string{
		"apikey":        key,
		"Authorization": "Bearer " + key,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("supabase client: %w", client.ClientError)
	}
	return &supabaseStore{client: client, logger: log.WithComponent("supabase")}, nil
}

func (s *supabaseStore) ListAll(ctx context.Context, col entities.Collection) ([]entities.Record, error) {
	data, _, err := s.client.From(col.String()).Select("*", "", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", col, err)
	}

	var records []entities.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", col, err)
	}

	out := make([]entities.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, NormalizeRecord(rec))
	}
	return out, nil
}

func (s *supabaseStore) ReplaceAll(ctx context.Context, col entities.Collection, records []entities.Record) error {
	// PostgREST refuses an unfiltered delete; every record has a non-empty id.
	if _, _, err := s.client.From(col.String()).Delete("", "").Neq("id", "").Execute(); err != nil {
		return fmt.Errorf("clear %s: %w", col, err)
	}

	if len(records) == 0 {
		return nil
	}

	if _, _, err := s.client.From(col.String()).Insert(records, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("insert into %s: %w", col, err)
	}

	s.logger.Infow("Collection replaced", "collection", col.String(), "records", len(records))
	return nil
}

func (s *supabaseStore) Close(ctx context.Context) error {
	return nil
}
