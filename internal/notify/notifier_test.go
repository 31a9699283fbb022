package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

type memCache struct {
	slots map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{slots: map[string][]byte{}}
}

func (m *memCache) Get(key string, v any) bool {
	data, ok := m.slots[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (m *memCache) Put(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.slots[key] = data
}

func (m *memCache) GetList(key string) []entities.Record {
	var records []entities.Record
	if !m.Get(key, &records) || records == nil {
		return []entities.Record{}
	}
	return records
}

func (m *memCache) PutList(key string, records []entities.Record) {
	if records == nil {
		records = []entities.Record{}
	}
	m.Put(key, records)
}

func (m *memCache) Delete(key string) {
	delete(m.slots, key)
}

type fakeSource struct {
	tasks []entities.Task
	err   error
}

func (f *fakeSource) Tasks(context.Context) ([]entities.Task, error) {
	return f.tasks, f.err
}

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) Send(title, body, tag string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, tag)
	return nil
}

type memSettings struct {
	settings entities.Settings
}

func (m *memSettings) Settings() entities.Settings             { return m.settings }
func (m *memSettings) SaveSettings(settings entities.Settings) { m.settings = settings }

func newTestNotifier(source *fakeSource, sender *recordingSender, settings *memSettings, at time.Time) (*Notifier, *memCache) {
	cache := newMemCache()
	n := New(cache, source, sender, settings, time.Minute, logger.NewNop())
	n.now = func() time.Time { return at }
	return n, cache
}

func enabledSettings(window entities.Window) *memSettings {
	s := entities.DefaultSettings()
	s.NotificationsEnabled = true
	s.NotificationTiming = window
	return &memSettings{settings: s}
}

func TestScanNotifiesWithinWindow(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

	source := &fakeSource{tasks: []entities.Task{
		{ID: "today", Title: "Due today", DueDate: "2026-01-15", Priority: entities.PriorityHigh, Status: entities.StatusTodo},
		{ID: "tomorrow", Title: "Due tomorrow", DueDate: "2026-01-16", Priority: entities.PriorityLow, Status: entities.StatusTodo},
		{ID: "later", Title: "Two days out", DueDate: "2026-01-17", Priority: entities.PriorityLow, Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	n, _ := newTestNotifier(source, sender, enabledSettings(entities.Window24h), now)

	sent := n.Scan(context.Background())
	assert.Equal(2, sent)
	assert.Equal([]string{"today-2026-01-15", "tomorrow-2026-01-15"}, sender.sent)
}

func TestScanWindowVariants(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	tasks := []entities.Task{
		{ID: "d0", Title: "t", DueDate: "2026-01-15", Status: entities.StatusTodo},
		{ID: "d1", Title: "t", DueDate: "2026-01-16", Status: entities.StatusTodo},
		{ID: "d2", Title: "t", DueDate: "2026-01-17", Status: entities.StatusTodo},
		{ID: "d3", Title: "t", DueDate: "2026-01-18", Status: entities.StatusTodo},
	}

	cases := []struct {
		window entities.Window
		want   int
	}{
		{entities.WindowSameDay, 1},
		{entities.Window24h, 2},
		{entities.Window48h, 3},
	}
	for _, tc := range cases {
		sender := &recordingSender{}
		n, _ := newTestNotifier(&fakeSource{tasks: tasks}, sender, enabledSettings(tc.window), now)
		assert.Equal(t, tc.want, n.Scan(context.Background()), string(tc.window))
	}
}

func TestScanSkipsDoneAndPastDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	source := &fakeSource{tasks: []entities.Task{
		{ID: "done", Title: "t", DueDate: "2026-01-15", Status: entities.StatusDone},
		{ID: "overdue", Title: "t", DueDate: "2026-01-14", Status: entities.StatusTodo},
		{ID: "no-date", Title: "t", DueDate: "", Status: entities.StatusTodo},
		{ID: "garbage", Title: "t", DueDate: "15/01/2026", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	n, _ := newTestNotifier(source, sender, enabledSettings(entities.Window48h), now)

	assert.Equal(t, 0, n.Scan(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestScanDedupsWithinDay(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

	source := &fakeSource{tasks: []entities.Task{
		{ID: "t1", Title: "t", DueDate: "2026-01-15", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	n, _ := newTestNotifier(source, sender, enabledSettings(entities.Window24h), now)

	assert.Equal(1, n.Scan(context.Background()))
	assert.Equal(0, n.Scan(context.Background()))
	assert.Equal(0, n.Scan(context.Background()))
	assert.Len(sender.sent, 1)
}

func TestScanNotifiesAgainNextDay(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	source := &fakeSource{tasks: []entities.Task{
		{ID: "t1", Title: "t", DueDate: "2026-01-16", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	settings := enabledSettings(entities.Window24h)
	n, _ := newTestNotifier(source, sender, settings, time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local))

	assert.Equal(1, n.Scan(context.Background()))

	// The clock rolls over to the due day; the log entry from yesterday no
	// longer blocks delivery.
	n.now = func() time.Time { return time.Date(2026, 1, 16, 9, 0, 0, 0, time.Local) }
	assert.Equal(1, n.Scan(context.Background()))
	assert.Equal([]string{"t1-2026-01-15", "t1-2026-01-16"}, sender.sent)
}

func TestDedupLogSurvivesRestart(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

	source := &fakeSource{tasks: []entities.Task{
		{ID: "t1", Title: "t", DueDate: "2026-01-15", Status: entities.StatusTodo},
	}}
	settings := enabledSettings(entities.Window24h)
	n, cache := newTestNotifier(source, &recordingSender{}, settings, now)
	assert.Equal(1, n.Scan(context.Background()))

	// A new notifier over the same cache sees the persisted log.
	sender2 := &recordingSender{}
	n2 := New(cache, source, sender2, settings, time.Minute, logger.NewNop())
	n2.now = func() time.Time { return now }
	assert.Equal(0, n2.Scan(context.Background()))
	assert.Empty(sender2.sent)
}

func TestScanDisabled(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	source := &fakeSource{tasks: []entities.Task{
		{ID: "t1", Title: "t", DueDate: "2026-01-15", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	settings := &memSettings{settings: entities.DefaultSettings()}
	n, _ := newTestNotifier(source, sender, settings, now)

	assert.Equal(t, 0, n.Scan(context.Background()))
}

func TestScanInvalidWindowDefaultsTo24h(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	source := &fakeSource{tasks: []entities.Task{
		{ID: "d1", Title: "t", DueDate: "2026-01-16", Status: entities.StatusTodo},
		{ID: "d2", Title: "t", DueDate: "2026-01-17", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	settings := enabledSettings(entities.Window("bogus"))
	n, _ := newTestNotifier(source, sender, settings, now)

	assert.Equal(t, 1, n.Scan(context.Background()))
}

func TestScanFailedDeliveryNotLogged(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

	source := &fakeSource{tasks: []entities.Task{
		{ID: "t1", Title: "t", DueDate: "2026-01-15", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{err: errors.New("dbus unavailable")}
	n, _ := newTestNotifier(source, sender, enabledSettings(entities.Window24h), now)

	assert.Equal(0, n.Scan(context.Background()))

	// Delivery recovers; the task has no log entry so it is retried.
	sender.err = nil
	assert.Equal(1, n.Scan(context.Background()))
}

func TestEnableRunsImmediateScan(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

	source := &fakeSource{tasks: []entities.Task{
		{ID: "t1", Title: "t", DueDate: "2026-01-15", Status: entities.StatusTodo},
	}}
	sender := &recordingSender{}
	settings := &memSettings{settings: entities.DefaultSettings()}
	n, _ := newTestNotifier(source, sender, settings, now)

	state, err := n.Enable(context.Background())
	assert.Nil(err)
	assert.Equal(PermissionGranted, state)
	assert.True(settings.settings.NotificationsEnabled)
	assert.Len(sender.sent, 1)
}

func TestEnableDenied(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

	sender := &recordingSender{}
	settings := &memSettings{settings: entities.DefaultSettings()}
	n, _ := newTestNotifier(&fakeSource{}, sender, settings, now)
	n.prompt = func() PermissionState { return PermissionDenied }

	state, err := n.Enable(context.Background())
	assert.Equal(PermissionDenied, state)
	assert.ErrorIs(err, entities.ErrPermissionDenied)
	assert.False(settings.settings.NotificationsEnabled)

	// The prompt is one-shot: a second attempt refuses without re-prompting.
	n.prompt = func() PermissionState { return PermissionGranted }
	_, err = n.Enable(context.Background())
	assert.ErrorIs(err, entities.ErrPermissionDenied)
}

func TestDisable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	settings := enabledSettings(entities.Window24h)
	n, _ := newTestNotifier(&fakeSource{}, &recordingSender{}, settings, now)

	n.Disable()
	assert.False(t, settings.settings.NotificationsEnabled)
	assert.Equal(t, PermissionDefault, n.Permission())
}

func TestScanTaskSourceError(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	source := &fakeSource{err: errors.New("decode failed")}
	n, _ := newTestNotifier(source, &recordingSender{}, enabledSettings(entities.Window24h), now)

	assert.Equal(t, 0, n.Scan(context.Background()))
}
