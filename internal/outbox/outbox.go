// Package outbox keeps progress updates that could not be delivered and replays them later.
package outbox

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/filesystem"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

const maxTries = 3

var (
	retryInitial = 500 * time.Millisecond
	retryMaxWait = 5 * time.Second
)

// Entry is the last undelivered progress of one lesson.
type Entry struct {
	LessonID       int       `json:"lesson_id"`
	Percentage     int       `json:"percentage"`
	WatchedSeconds float64   `json:"watched_seconds"`
	QueuedAt       time.Time `json:"queued_at"`
}

func (e *Entry) key() string {
	return strconv.Itoa(e.LessonID)
}

// Sender delivers progress. *api.Client implements it.
type Sender interface {
	SendProgress(ctx context.Context, lessonID int, p api.Progress, token string) (*api.ProgressResult, error)
}

// Report summarizes a replay.
type Report struct {
	Sent      int
	Dropped   int
	Remaining int
}

func cacher() *gache.Cache[map[string]*Entry] {
	return gache.New[map[string]*Entry](
		&gache.Options{
			Path:       where.Outbox(),
			FileSystem: &filesystem.GacheFs{},
		},
	)
}

func load(c *gache.Cache[map[string]*Entry]) (map[string]*Entry, error) {
	cached, expired, err := c.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Queue stores an update for later. A lesson keeps only its highest queued percentage.
func Queue(lessonID, percentage int, watchedSeconds float64) error {
	c := cacher()
	entries, err := load(c)
	if err != nil {
		return err
	}

	entry := &Entry{
		LessonID:       lessonID,
		Percentage:     percentage,
		WatchedSeconds: watchedSeconds,
		QueuedAt:       time.Now(),
	}

	if existing, ok := entries[entry.key()]; ok && existing.Percentage > entry.Percentage {
		entry.Percentage = existing.Percentage
		entry.WatchedSeconds = existing.WatchedSeconds
	}
	entries[entry.key()] = entry

	log.Infof("queued progress %d%% of lesson %d for replay", entry.Percentage, lessonID)
	return c.Set(entries)
}

// Pending returns the queued updates, oldest first.
func Pending() ([]*Entry, error) {
	entries, err := load(cacher())
	if err != nil {
		return nil, err
	}
	return oldestFirst(entries), nil
}

func oldestFirst(entries map[string]*Entry) []*Entry {
	sorted := lo.Values(entries)
	slices.SortFunc(sorted, func(a, b *Entry) int {
		return a.QueuedAt.Compare(b.QueuedAt)
	})
	return sorted
}

// Clear drops every queued update.
func Clear() error {
	return cacher().Set(make(map[string]*Entry))
}

// Reconcile replays the queued updates in order. Delivered updates and updates the backend rejects
// for good (missing lesson, lost enrollment, invalid payload) are removed. An unauthorized answer or
// an exhausted network failure stops the replay and keeps what is left for the next run.
func Reconcile(ctx context.Context, s Sender, token string) (Report, error) {
	var report Report

	c := cacher()
	entries, err := load(c)
	if err != nil {
		return report, err
	}

	var stopErr error
	for _, entry := range oldestFirst(entries) {
		err := send(ctx, s, entry, token)
		switch {
		case err == nil:
			report.Sent++
			delete(entries, entry.key())
		case api.IsKind(err, api.NotFound), api.IsKind(err, api.Forbidden), api.IsKind(err, api.Invalid):
			log.Warnf("dropping queued progress of lesson %d: %v", entry.LessonID, err)
			report.Dropped++
			delete(entries, entry.key())
		default:
			stopErr = err
		}

		if stopErr != nil {
			break
		}
	}

	report.Remaining = len(entries)
	if err := c.Set(entries); err != nil {
		return report, err
	}

	if stopErr != nil {
		log.Warnf("outbox replay stopped with %d left: %v", report.Remaining, stopErr)
	}
	return report, stopErr
}

func send(ctx context.Context, s Sender, entry *Entry, token string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitial
	b.MaxInterval = retryMaxWait

	progress := api.Progress{Percentage: entry.Percentage, WatchedSeconds: entry.WatchedSeconds}
	_, err := backoff.Retry(ctx, func() (*api.ProgressResult, error) {
		result, err := s.SendProgress(ctx, entry.LessonID, progress, token)
		if err == nil {
			return result, nil
		}

		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(maxTries))
	return err
}
