package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeos/core/internal/application/services"
	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/ports"
)

type fakeStore struct {
	records  map[entities.Collection][]entities.Record
	listErr  error
	writeErr error
}

func (f *fakeStore) ListAll(ctx context.Context, col entities.Collection) ([]entities.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records[col], nil
}

func (f *fakeStore) ReplaceAll(ctx context.Context, col entities.Collection, records []entities.Record) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.records == nil {
		f.records = map[entities.Collection][]entities.Record{}
	}
	f.records[col] = records
	return nil
}

func (f *fakeStore) Close(ctx context.Context) error { return nil }

type fakeResolver struct {
	store    ports.CollectionStore
	err      error
	resolved int
	creds    entities.Credentials
}

func (f *fakeResolver) Resolve(ctx context.Context, creds entities.Credentials) (ports.CollectionStore, error) {
	f.resolved++
	f.creds = creds
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

func newHandler(resolver ports.StoreResolver) *SyncHandler {
	log := logger.NewNop()
	return NewSyncHandler(services.NewSyncService(resolver, log), log)
}

func doRequest(t *testing.T, h *SyncHandler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	var err error
	if method == http.MethodGet {
		err = h.List(c)
	} else {
		err = h.Replace(c)
	}
	require.NoError(t, err)
	return rec
}

func TestListReturnsData(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	resolver := &fakeResolver{store: &fakeStore{records: map[entities.Collection][]entities.Record{
		entities.CollectionNotes: {{"id": "n1", "title": "hello"}},
	}}}
	h := newHandler(resolver)

	rec := doRequest(t, h, http.MethodGet, "/api?type=notes", "", nil)
	assert.Equal(http.StatusOK, rec.Code)

	var payload DataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(payload.Data, 1)
	assert.Equal("n1", payload.Data[0]["id"])
}

func TestListEmptyCollectionYieldsEmptyArray(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{store: &fakeStore{}}
	h := newHandler(resolver)

	rec := doRequest(t, h, http.MethodGet, "/api?type=events", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestListInvalidTypeRejectedBeforeResolve(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	resolver := &fakeResolver{store: &fakeStore{}}
	h := newHandler(resolver)

	for _, target := range []string{"/api", "/api?type=users", "/api?type="} {
		rec := doRequest(t, h, http.MethodGet, target, "", map[string]string{
			entities.HeaderDatabaseURL: "postgres://u:p@host/db",
		})
		assert.Equal(http.StatusBadRequest, rec.Code, target)
		assert.JSONEq(`{"error":"Invalid type parameter"}`, rec.Body.String())
	}
	assert.Zero(resolver.resolved)
}

func TestListNoCredentials(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	resolver := &fakeResolver{err: entities.ErrNoCredentials}
	h := newHandler(resolver)

	rec := doRequest(t, h, http.MethodGet, "/api?type=notes", "", nil)
	assert.Equal(http.StatusInternalServerError, rec.Code)

	var payload ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(payload.Error, "credentials")
}

func TestReplaceRoundTrip(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := &fakeStore{}
	resolver := &fakeResolver{store: store}
	h := newHandler(resolver)

	body := `[{"id":"t1","title":"a"},{"id":"t2","title":"b"}]`
	rec := doRequest(t, h, http.MethodPost, "/api?type=tasks", body, nil)
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"success":true}`, rec.Body.String())
	assert.Len(store.records[entities.CollectionTasks], 2)

	rec = doRequest(t, h, http.MethodGet, "/api?type=tasks", "", nil)
	assert.Equal(http.StatusOK, rec.Code)

	var payload DataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(payload.Data, 2)
}

func TestReplaceEmptyBodyClears(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := &fakeStore{records: map[entities.Collection][]entities.Record{
		entities.CollectionNotes: {{"id": "old"}},
	}}
	h := newHandler(&fakeResolver{store: store})

	rec := doRequest(t, h, http.MethodPost, "/api?type=notes", "", nil)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Empty(store.records[entities.CollectionNotes])

	rec = doRequest(t, h, http.MethodPost, "/api?type=notes", "[]", nil)
	assert.Equal(http.StatusOK, rec.Code)
}

func TestReplaceNonArrayBody(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := &fakeStore{records: map[entities.Collection][]entities.Record{
		entities.CollectionTasks: {{"id": "keep"}},
	}}
	resolver := &fakeResolver{store: store}
	h := newHandler(resolver)

	// "null" decodes into a nil slice without an unmarshal error, so it must be
	// rejected by shape, not by decode failure.
	for _, body := range []string{`{"id":"t1"}`, `"text"`, `{broken`, `null`, "  null\n", `123`} {
		rec := doRequest(t, h, http.MethodPost, "/api?type=tasks", body, nil)
		assert.Equal(http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(`{"error":"body must be an array"}`, rec.Body.String(), body)
	}
	assert.Zero(resolver.resolved)
	assert.Len(store.records[entities.CollectionTasks], 1)
}

func TestReplaceInvalidType(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{store: &fakeStore{}}
	h := newHandler(resolver)

	rec := doRequest(t, h, http.MethodPost, "/api?type=sessions", "[]", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, resolver.resolved)
}

func TestCredentialHeadersReachResolver(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	resolver := &fakeResolver{store: &fakeStore{}}
	h := newHandler(resolver)

	doRequest(t, h, http.MethodGet, "/api?type=notes", "", map[string]string{
		entities.HeaderSupabaseURL: "https://x.supabase.co",
		entities.HeaderSupabaseKey: "service-key",
	})

	assert.Equal(1, resolver.resolved)
	assert.Equal("https://x.supabase.co", resolver.creds.SupabaseURL)
	assert.Equal(entities.BackendSupabase, resolver.creds.Kind())
}

func TestListBackendFailure(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{store: &fakeStore{listErr: errors.New("connection reset")}}
	h := newHandler(resolver)

	rec := doRequest(t, h, http.MethodGet, "/api?type=notes", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection reset")
}
