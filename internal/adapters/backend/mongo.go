package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

// mongoStore implements CollectionStore over a MongoDB database. Records are
// stored verbatim as documents; the Mongo-internal _id is stripped on reads so
// the client only ever sees its own string id.
type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

func openMongo(ctx context.Context, uri string, log *logger.Logger) (*mongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &mongoStore{
		client: client,
		db:     client.Database(databaseName(uri)),
		logger: log.WithComponent("mongodb"),
	}, nil
}

// databaseName pulls the database out of the URI path, defaulting to "lifeos".
func databaseName(uri string) string {
	normalized := strings.NewReplacer("mongodb+srv://", "http://", "mongodb://", "http://").Replace(uri)
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "lifeos"
	}
	name := strings.TrimPrefix(parsed.Path, "/")
	if name == "" {
		return "lifeos"
	}
	return name
}

func (s *mongoStore) ListAll(ctx context.Context, col entities.Collection) ([]entities.Record, error) {
	cur, err := s.db.Collection(col.String()).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", col, err)
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", col, err)
	}

	records := make([]entities.Record, 0, len(docs))
	for _, doc := range docs {
		delete(doc, "_id")
		records = append(records, NormalizeRecord(entities.Record(doc)))
	}
	return records, nil
}

func (s *mongoStore) ReplaceAll(ctx context.Context, col entities.Collection, records []entities.Record) error {
	coll := s.db.Collection(col.String())

	// Delete-then-insert, sequentially. Free-tier deployments don't offer
	// multi-document transactions, and the single-writer contract accepts the
	// transient window.
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear %s: %w", col, err)
	}

	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i, rec := range records {
		docs[i] = rec
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert into %s: %w", col, err)
	}

	s.logger.Infow("Collection replaced", "collection", col.String(), "records", len(records))
	return nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
