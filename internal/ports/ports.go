package ports

import (
	"context"

	"github.com/lifeos/core/internal/domain/entities"
)

// CollectionStore defines the two operations every database backend implements.
// ReplaceAll deletes every record in the collection and inserts the given list
// in one logical step; a nil or empty list clears the collection.
type CollectionStore interface {
	ListAll(ctx context.Context, col entities.Collection) ([]entities.Record, error)
	ReplaceAll(ctx context.Context, col entities.Collection, records []entities.Record) error
	Close(ctx context.Context) error
}

// StoreResolver turns request credentials into an open CollectionStore,
// reusing a cached client when the credential string is unchanged.
type StoreResolver interface {
	Resolve(ctx context.Context, creds entities.Credentials) (CollectionStore, error)
}

// Cache is the durable per-user key/value store backing offline fallback,
// the config record, the notification dedup log and the auth session.
type Cache interface {
	GetList(key string) []entities.Record
	PutList(key string, records []entities.Record)
	Get(key string, v any) bool
	Put(key string, v any)
	Delete(key string)
}

// Sender delivers one OS-level notification. The tag encodes
// "<taskId>-<YYYY-MM-DD>" so the OS collapses repeated attempts within a day.
type Sender interface {
	Send(title, body, tag string) error
}

// TaskSource yields the current task list snapshot for a notifier scan.
type TaskSource interface {
	Tasks(ctx context.Context) ([]entities.Task, error)
}

// SettingsStore reads and writes the user's config record.
type SettingsStore interface {
	Settings() entities.Settings
	SaveSettings(settings entities.Settings)
}
