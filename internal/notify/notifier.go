// Package notify scans the task collection for upcoming deadlines and delivers
// at most one OS-level notification per task per calendar day.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/ports"
)

// PermissionState mirrors the three-way notification permission.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// Notifier runs the deadline scan on a fixed cadence. The dedup log, persisted
// in the durable cache, is the sole guard against duplicate delivery; the scan
// is single-threaded and the log is written once at the end of each scan.
type Notifier struct {
	cache    ports.Cache
	source   ports.TaskSource
	sender   ports.Sender
	settings ports.SettingsStore
	interval time.Duration
	logger   *logger.Logger

	permission PermissionState
	now        func() time.Time
	prompt     func() PermissionState
}

// New creates a notifier. The permission starts in its default state; Enable
// issues the one-shot prompt.
func New(cache ports.Cache, source ports.TaskSource, sender ports.Sender, settings ports.SettingsStore, interval time.Duration, log *logger.Logger) *Notifier {
	return &Notifier{
		cache:      cache,
		source:     source,
		sender:     sender,
		settings:   settings,
		interval:   interval,
		logger:     log.WithComponent("notify"),
		permission: PermissionDefault,
		now:        time.Now,
		// A desktop delivery channel needs no user prompt; the browser three-way
		// state is kept so a denied environment still refuses cleanly.
		prompt: func() PermissionState { return PermissionGranted },
	}
}

// Permission returns the current permission state.
func (n *Notifier) Permission() PermissionState {
	return n.permission
}

// Enable turns the feature on. If the permission is still default, a one-shot
// prompt is issued; if it resolves to denied the feature refuses to enable and
// the caller gets a specific denied-by-user signal to surface. An immediate
// scan runs on success.
func (n *Notifier) Enable(ctx context.Context) (PermissionState, error) {
	if n.permission == PermissionDefault {
		n.permission = n.prompt()
	}
	if n.permission == PermissionDenied {
		return PermissionDenied, entities.ErrPermissionDenied
	}

	settings := n.settings.Settings()
	settings.NotificationsEnabled = true
	n.settings.SaveSettings(settings)

	n.Scan(ctx)
	return PermissionGranted, nil
}

// Disable turns the feature off without touching the permission state.
func (n *Notifier) Disable() {
	settings := n.settings.Settings()
	settings.NotificationsEnabled = false
	n.settings.SaveSettings(settings)
}

// Run scans once immediately and then on every tick until the context ends.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	n.Scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.Scan(ctx)
		}
	}
}

// Scan walks the current task snapshot and delivers a notification for every
// not-done task whose deadline falls inside the configured window and has not
// already been notified today. It returns the number of notifications sent.
func (n *Notifier) Scan(ctx context.Context) int {
	settings := n.settings.Settings()
	if !settings.NotificationsEnabled || n.permission == PermissionDenied {
		return 0
	}

	window := settings.NotificationTiming
	if !window.IsValid() {
		window = entities.Window24h
	}

	tasks, err := n.source.Tasks(ctx)
	if err != nil {
		n.logger.Warnw("Deadline scan skipped, task list unavailable", "error", err)
		return 0
	}

	now := n.now()
	today := now.Format("2006-01-02")
	dedup := n.loadLog()

	sent := 0
	for _, task := range tasks {
		if task.Done() {
			continue
		}
		d, ok := task.DaysUntil(now)
		if !ok || d < 0 {
			continue
		}
		if !window.Contains(d) {
			continue
		}
		if dedup[task.ID] == today {
			continue
		}

		title := "🔔 " + task.Title
		body := fmt.Sprintf("Due: %s • Priority: %s", urgency(d, task.DueDate), task.Priority)
		tag := task.ID + "-" + today

		if err := n.sender.Send(title, body, tag); err != nil {
			n.logger.Warnw("Notification delivery failed", "task_id", task.ID, "error", err)
			continue
		}

		dedup[task.ID] = today
		sent++
	}

	if sent > 0 {
		n.cache.Put(entities.CacheKeyNotificationLog, dedup)
	}
	return sent
}

func (n *Notifier) loadLog() map[string]string {
	dedup := map[string]string{}
	n.cache.Get(entities.CacheKeyNotificationLog, &dedup)
	if dedup == nil {
		dedup = map[string]string{}
	}
	return dedup
}

func urgency(d int, dueDate string) string {
	switch d {
	case 0:
		return "Today!"
	case 1:
		return "Tomorrow"
	default:
		return dueDate
	}
}
