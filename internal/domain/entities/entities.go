package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidCollection = errors.New("invalid type parameter")
	ErrBodyNotArray      = errors.New("body must be an array")
	ErrNoCredentials     = errors.New("database credentials are not set (check Settings or environment)")
	ErrPermissionDenied  = errors.New("notification permission denied by user")
	ErrNotificationsOff  = errors.New("notifications are disabled")
	ErrInvalidBase64     = errors.New("transfer token is not valid base64")
	ErrInvalidJSON       = errors.New("transfer token is not valid JSON")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrSessionExpired    = errors.New("session expired")
	ErrLocationNotFound  = errors.New("location not found")
	ErrInvalidColumnName = errors.New("invalid column name in record")
)

// Collection identifies one of the synchronized entity kinds. It doubles as the
// table (or document collection) name on the backend, so ParseCollection is the
// only way a request string becomes a Collection.
type Collection string

const (
	CollectionNotes  Collection = "notes"
	CollectionTasks  Collection = "tasks"
	CollectionEvents Collection = "events"
)

// Collections lists every valid collection in a fixed order.
func Collections() []Collection {
	return []Collection{CollectionNotes, CollectionTasks, CollectionEvents}
}

// ParseCollection validates a raw type parameter against the allow-list.
func ParseCollection(raw string) (Collection, error) {
	switch Collection(raw) {
	case CollectionNotes, CollectionTasks, CollectionEvents:
		return Collection(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, raw)
	}
}

// CacheKey returns the durable local cache slot for the collection.
func (c Collection) CacheKey() string {
	return "lifeos_" + string(c)
}

func (c Collection) String() string {
	return string(c)
}

// Priority levels for tasks
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Status values for tasks
type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Window is the configured notification window: the set of day offsets during
// which an upcoming deadline produces an alert.
type Window string

const (
	WindowSameDay Window = "same-day"
	Window24h     Window = "24h"
	Window48h     Window = "48h"
)

func (w Window) IsValid() bool {
	switch w {
	case WindowSameDay, Window24h, Window48h:
		return true
	default:
		return false
	}
}

// Contains reports whether a deadline d whole days away falls inside the window.
// Past-due deadlines (d < 0) are never inside any window.
func (w Window) Contains(d int) bool {
	switch w {
	case WindowSameDay:
		return d == 0
	case Window24h:
		return d == 0 || d == 1
	case Window48h:
		return d >= 0 && d <= 2
	default:
		return false
	}
}

// Record is the uniform wire shape for a synchronized record. The adapter and
// the sync client move collections around as []Record; typed views are decoded
// on demand.
type Record map[string]any

// Note represents a note
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"` // YYYY-MM-DD, a calendar date
	Color   string `json:"color,omitempty"`
}

// Task represents a task with an optional deadline
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"` // YYYY-MM-DD, empty means no deadline
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Color       string   `json:"color,omitempty"`
}

// CalendarEvent represents a calendar entry. Task-derived entries are synthesized
// with Event() and must never be persisted.
type CalendarEvent struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Start        string `json:"start"` // local datetime string
	End          string `json:"end"`
	IsRecurring  bool   `json:"isRecurring"`
	IsTaskLinked bool   `json:"isTaskLinked,omitempty"`
}

// NewID generates a client-side record id.
func NewID() string {
	return uuid.NewString()
}

// Done reports whether the task is completed.
func (t *Task) Done() bool {
	return t.Status == StatusDone
}

// DaysUntil returns the number of whole calendar days between now and the task's
// due date, both taken at local midnight. The second return is false when the
// task has no deadline or the date does not parse. Deadlines are calendar dates
// in the user's timezone, not instants.
func (t *Task) DaysUntil(now time.Time) (int, bool) {
	if t.DueDate == "" {
		return 0, false
	}
	due, err := time.ParseInLocation("2006-01-02", t.DueDate, now.Location())
	if err != nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Ceil, not truncate: across a DST transition the midnight-to-midnight gap
	// can be 23 hours, and a 23-hour gap is still one calendar day.
	return int(math.Ceil(due.Sub(today).Hours() / 24)), true
}

// Event projects the task onto the calendar. The id prefix marks the entry as a
// read-only projection so the UI never writes it back.
func (t *Task) Event() CalendarEvent {
	return CalendarEvent{
		ID:           "task-" + t.ID,
		Title:        "[Task] " + t.Title,
		Description:  t.Description,
		Start:        t.DueDate,
		End:          t.DueDate,
		IsRecurring:  false,
		IsTaskLinked: true,
	}
}

// CombinedEvents merges persisted events with projections of every task that has
// a deadline. The result is recomputed on demand and never stored.
func CombinedEvents(events []CalendarEvent, tasks []Task) []CalendarEvent {
	combined := make([]CalendarEvent, 0, len(events)+len(tasks))
	combined = append(combined, events...)
	for _, t := range tasks {
		if t.DueDate != "" {
			combined = append(combined, t.Event())
		}
	}
	return combined
}

// DecodeTasks converts wire records into typed tasks.
func DecodeTasks(records []Record) ([]Task, error) {
	return decodeRecords[Task](records)
}

// DecodeNotes converts wire records into typed notes.
func DecodeNotes(records []Record) ([]Note, error) {
	return decodeRecords[Note](records)
}

// DecodeEvents converts wire records into typed calendar events.
func DecodeEvents(records []Record) ([]CalendarEvent, error) {
	return decodeRecords[CalendarEvent](records)
}

func decodeRecords[T any](records []Record) ([]T, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

// EncodeRecords converts typed entities back into wire records.
func EncodeRecords[T any](items []T) ([]Record, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	var out []Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return out, nil
}
