// Package sync is the client half of the data-persistence core. It mirrors the
// UI's storage service: every collection read or write goes to the HTTP backend
// first and falls back to the durable local cache, so the app keeps working
// with no backend at all.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/ports"
)

// Client mediates between collection state and the backend adapter. Neither
// GetAll nor SaveAll ever surfaces an error: failure paths are deliberately
// indistinguishable from success so the UI stays operational offline.
type Client struct {
	apiURL  string
	timeout time.Duration
	http    *http.Client
	cache   ports.Cache
	logger  *logger.Logger
}

// New creates a sync client against the given adapter URL.
func New(apiURL string, timeout time.Duration, cache ports.Cache, log *logger.Logger) *Client {
	return &Client{
		apiURL:  apiURL,
		timeout: timeout,
		http:    &http.Client{},
		cache:   cache,
		logger:  log.WithComponent("sync"),
	}
}

// Settings reads the current config record from the cache.
func (c *Client) Settings() entities.Settings {
	settings := entities.DefaultSettings()
	c.cache.Get(entities.CacheKeyConfig, &settings)
	return settings
}

// SaveSettings persists the config record.
func (c *Client) SaveSettings(settings entities.Settings) {
	c.cache.Put(entities.CacheKeyConfig, settings)
}

// GetAll returns the current collection. On a successful backend read the
// result is also written through to the cache; on any failure (non-2xx,
// timeout, network error) the cached value is returned, degrading to an empty
// list.
func (c *Client) GetAll(ctx context.Context, col entities.Collection) []entities.Record {
	records, err := c.fetch(ctx, col)
	if err != nil {
		c.logger.Debugw("Falling back to cache", "collection", col.String(), "error", err)
		return c.cache.GetList(col.CacheKey())
	}

	c.cache.PutList(col.CacheKey(), records)
	return records
}

// SaveAll replaces the server-side collection wholesale with items. On failure
// the items are written to the cache instead; either way the caller's state is
// preserved and no error is reported.
func (c *Client) SaveAll(ctx context.Context, col entities.Collection, items []entities.Record) []entities.Record {
	if items == nil {
		items = []entities.Record{}
	}

	if err := c.push(ctx, col, items); err != nil {
		c.logger.Debugw("Backend write failed, caching locally", "collection", col.String(), "error", err)
	}

	// The cache always reflects what the UI believes, whether or not the
	// backend accepted the write.
	c.cache.PutList(col.CacheKey(), items)
	return items
}

// Tasks returns the typed task collection; it satisfies ports.TaskSource for
// the notifier.
func (c *Client) Tasks(ctx context.Context) ([]entities.Task, error) {
	return entities.DecodeTasks(c.GetAll(ctx, entities.CollectionTasks))
}

// Notes returns the typed note collection.
func (c *Client) Notes(ctx context.Context) ([]entities.Note, error) {
	return entities.DecodeNotes(c.GetAll(ctx, entities.CollectionNotes))
}

// Events returns the typed persisted event collection. Task-derived entries are
// projections; combine with entities.CombinedEvents when rendering.
func (c *Client) Events(ctx context.Context) ([]entities.CalendarEvent, error) {
	return entities.DecodeEvents(c.GetAll(ctx, entities.CollectionEvents))
}

func (c *Client) fetch(ctx context.Context, col entities.Collection) ([]entities.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(col), nil)
	if err != nil {
		return nil, err
	}
	c.attachHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	var payload struct {
		Data []entities.Record `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Data == nil {
		payload.Data = []entities.Record{}
	}
	return payload.Data, nil
}

func (c *Client) push(ctx context.Context, col entities.Collection, items []entities.Record) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(col), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) endpoint(col entities.Collection) string {
	return c.apiURL + "?type=" + url.QueryEscape(col.String())
}

// attachHeaders copies the credential headers matching the configured backend
// style onto the request, verbatim. With no configured credentials none are
// sent and the adapter falls back to its environment.
func (c *Client) attachHeaders(req *http.Request) {
	for name, value := range c.Settings().Headers() {
		req.Header.Set(name, value)
	}
}
