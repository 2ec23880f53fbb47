// Package session runs one viewing of a lesson: access check, playback and progress tracking, in that order.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/gate"
	"github.com/coursecast/coursecast/internal/outbox"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/player"
	"github.com/coursecast/coursecast/tracker"
	"github.com/spf13/viper"
)

// Client is the part of the backend a session needs. *api.Client implements it.
type Client interface {
	GetLesson(ctx context.Context, lessonID int, token string) (*api.LessonDetail, error)
	SendProgress(ctx context.Context, lessonID int, p api.Progress, token string) (*api.ProgressResult, error)
}

// Launcher builds the observer that plays target for a granted lesson.
type Launcher func(access *gate.Access, target string) player.Observer

// MPVLauncher plays lessons in mpv, starting at the resume point when resume is set.
func MPVLauncher(binary string, resume bool) Launcher {
	return func(access *gate.Access, target string) player.Observer {
		obs := &player.MPVObserver{Binary: binary, Target: target, Title: access.Title}
		if resume && !access.IsCompleted {
			obs.StartAt = access.LastWatchedSecond.OrEmpty()
		}
		return obs
	}
}

// Options tunes a session. Hooks other than OnStart run on internal goroutines and must not block.
type Options struct {
	Token                string
	Interval             time.Duration
	Timeout              time.Duration
	CompletionPercentage int

	// Outbox queues the final update on disk when it cannot be delivered.
	Outbox bool

	OnStart        func(*gate.Access)
	OnUpdate       func(tracker.State)
	OnPersistError func(error)

	// OnCompleted receives the lesson as re-fetched after the backend confirmed completion.
	// The detail is nil when the re-fetch failed.
	OnCompleted func(*api.LessonDetail)
}

// FromConfig fills the tracker and outbox options from configuration.
func FromConfig(token string) Options {
	return Options{
		Token:                token,
		Interval:             config.Seconds(key.TrackerInterval),
		Timeout:              config.Seconds(key.APITimeout),
		CompletionPercentage: viper.GetInt(key.TrackerCompletionPercentage),
		Outbox:               viper.GetBool(key.OutboxEnable),
	}
}

// Result describes how a session ended.
type Result struct {
	Access *gate.Access
	Final  tracker.State

	// Flushed is set when unsaved progress was delivered after playback stopped.
	Flushed bool

	// Queued is set when unsaved progress went to the outbox instead.
	Queued bool
}

// Completed reports whether the backend confirmed completion during the session.
func (r *Result) Completed() bool {
	return r.Final.Confirmed
}

// Session plays lessons against one backend.
type Session struct {
	client Client
	gate   *gate.Gate
	launch Launcher
	opts   Options
}

func New(client Client, launch Launcher, opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = tracker.DefaultTimeout
	}
	return &Session{
		client: client,
		gate:   gate.New(client, opts.CompletionPercentage),
		launch: launch,
		opts:   opts,
	}
}

// Run plays the lesson until the player exits or ctx is done.
// A denial is returned as *gate.DeniedError before any player is constructed.
func (s *Session) Run(ctx context.Context, lessonID int) (*Result, error) {
	access, err := s.gate.Evaluate(ctx, lessonID, s.opts.Token)
	if err != nil {
		return nil, err
	}

	target, err := player.ResolveVideo(access.VideoProvider, access.VideoID, access.EmbedURL)
	if err != nil {
		return nil, &player.InitError{Video: access.VideoID, Err: err}
	}

	if s.opts.OnStart != nil {
		s.opts.OnStart(access)
	}

	logger := log.With(log.Fields{"lesson": lessonID})
	logger.Infof("starting %q (%s) from %d%%", access.Title, access.State, access.LastPersistedPercentage)

	t := tracker.New(lessonID, tracker.PersisterFunc(func(ctx context.Context, u tracker.Update) (bool, error) {
		return s.persist(ctx, lessonID, u)
	}), tracker.Options{
		Interval:         s.opts.Interval,
		Timeout:          s.opts.Timeout,
		ResumePercentage: access.LastPersistedPercentage,
		AlreadyCompleted: access.IsCompleted,
		OnCompleted:      func() { go s.completed(lessonID) },
		OnPersistError:   s.opts.OnPersistError,
		OnChange:         s.opts.OnUpdate,
	})

	obs := &capture{Observer: s.launch(access, target)}
	if err := t.Attach(obs); err != nil {
		t.Close()
		return nil, err
	}

	select {
	case <-obs.sub.Done():
		logger.Debug("player exited")
	case <-ctx.Done():
		logger.Debug("session cancelled")
	}

	settle, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	result := &Result{Access: access, Final: t.Settle(settle)}
	s.flush(lessonID, result)
	return result, nil
}

func (s *Session) persist(ctx context.Context, lessonID int, u tracker.Update) (bool, error) {
	res, err := s.client.SendProgress(ctx, lessonID, api.Progress{
		WatchedSeconds: u.WatchedSeconds,
		Percentage:     u.Percentage,
	}, s.opts.Token)
	if err != nil {
		return false, err
	}
	return res.IsCompleted, nil
}

// flush makes one last attempt for progress the tracker could not save, then falls back to the outbox.
// A save that never answered is not repeated; its update goes straight to the outbox.
func (s *Session) flush(lessonID int, result *Result) {
	final := result.Final
	if !final.Unsaved() {
		return
	}

	u := tracker.Update{Percentage: final.HighWaterPercentage, WatchedSeconds: final.Position}

	if final.InFlight {
		log.Warnf("save of lesson %d still unanswered after %s", lessonID, s.opts.Timeout)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()

		_, err := s.persist(ctx, lessonID, u)
		if err == nil {
			result.Flushed = true
			return
		}
		log.Warnf("final save of lesson %d at %d%% failed: %v", lessonID, u.Percentage, err)

		if !worthQueueing(err) {
			return
		}
	}

	if !s.opts.Outbox {
		return
	}
	if err := outbox.Queue(lessonID, u.Percentage, u.WatchedSeconds); err != nil {
		log.Errorf("queue progress of lesson %d: %v", lessonID, err)
		return
	}
	result.Queued = true
}

// worthQueueing reports whether a later replay of the same update could succeed.
func worthQueueing(err error) bool {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Retryable() || apiErr.Kind == api.Unauthorized
}

func (s *Session) completed(lessonID int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	detail, err := s.client.GetLesson(ctx, lessonID, s.opts.Token)
	if err != nil {
		log.Warnf("re-fetch lesson %d after completion: %v", lessonID, err)
		detail = nil
	}
	if s.opts.OnCompleted != nil {
		s.opts.OnCompleted(detail)
	}
}

// capture keeps the subscription the tracker makes so the session can wait for the player to exit.
type capture struct {
	player.Observer
	sub player.Subscription
}

func (c *capture) Subscribe(cb player.Callbacks) (player.Subscription, error) {
	sub, err := c.Observer.Subscribe(cb)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return sub, nil
}

// Describe explains a denial to the viewer.
func Describe(denied *gate.DeniedError) string {
	switch denied.Reason {
	case gate.NotAuthenticated:
		return "You need to log in to watch this lesson."
	case gate.Locked:
		if denied.Message != "" {
			return denied.Message
		}
		return "This lesson is locked. Complete the previous lesson first."
	default:
		if denied.Message != "" {
			return denied.Message
		}
		return fmt.Sprintf("You are not enrolled in the course of lesson %d.", denied.LessonID)
	}
}
