package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron"
	"postpilot/internal/models"
	"postpilot/internal/repository"
	"postpilot/internal/service"
)

// tickSpec is the fixed check period. Pacing below the tick resolution
// comes from hours_between_posts, not from the timer.
const tickSpec = "@every 1h0m0s"

// Scheduler advances at most one post per platform per tick, once the
// configured number of hours has passed since the platform's most
// recent live post. It is started explicitly by the composition root.
type Scheduler struct {
	pr         repository.PostRepository
	sr         repository.ScheduleRepository
	pa         repository.PublishAttemptRepository
	publishers map[string]service.PublisherService
	now        func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func New(
	pr repository.PostRepository,
	sr repository.ScheduleRepository,
	pa repository.PublishAttemptRepository,
	publishers map[string]service.PublisherService) *Scheduler {
	return &Scheduler{
		pr:         pr,
		sr:         sr,
		pa:         pa,
		publishers: publishers,
		now:        time.Now,
	}
}

// Start fires one immediate check, then checks every tick until Stop.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.cron = cron.New()
	s.cron.AddFunc(tickSpec, s.CheckAll)
	s.running = true

	go s.CheckAll()
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	s.cron.Stop()
	s.cron = nil
	s.running = false
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CheckAll runs one tick over every platform that has a publisher.
// Platforms without one (pinterest) are manual destinations and are
// never auto-published.
func (s *Scheduler) CheckAll() {
	ctx := context.Background()

	platforms := make([]string, 0, len(s.publishers))
	for platform := range s.publishers {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	for _, platform := range platforms {
		s.checkPlatform(ctx, platform)
	}
}

func (s *Scheduler) checkPlatform(ctx context.Context, platform string) {
	// One platform's failure must never kill the timer or starve the
	// other platforms' checks.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler check panicked", "platform", platform, "panic", r)
		}
	}()

	sc, err := s.sr.GetByPlatform(ctx, platform)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if sc == nil || !sc.IsActive {
		return
	}

	posts, err := s.pr.ListByPlatform(ctx, platform)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if !s.intervalElapsed(sc, posts) {
		return
	}

	candidate := nextCandidate(posts)
	if candidate == nil {
		return
	}

	outcome := s.publishers[platform].Publish(ctx, candidate.ID, service.PublishOptions{})

	attempt := models.PublishAttempt{
		PostID:   candidate.ID,
		Platform: platform,
		Success:  outcome.Published(),
	}
	if outcome.Error != "" {
		attempt.ErrorMessage = outcome.Error
	} else if outcome.Warning != "" {
		attempt.ErrorMessage = outcome.Warning
	}
	if _, err := s.pa.Create(ctx, &attempt); err != nil {
		slog.Info("failed to record publish attempt", "post_id", candidate.ID, "error", err.Error())
	}

	if !outcome.Published() {
		// Leave the post as-is; the next tick retries from wherever the
		// pipeline stopped.
		slog.Info("scheduled publish did not complete",
			"platform", platform, "post_id", candidate.ID, "detail", attempt.ErrorMessage)
		return
	}

	// The publisher already persisted the authoritative identifiers;
	// the status update is an idempotent display hint.
	if err := s.pr.UpdatePostStatus(ctx, models.PostStatusPublished, candidate.ID); err != nil {
		slog.Info(err.Error())
	}

	slog.Info("scheduled publish completed",
		"platform", platform, "post_id", candidate.ID, "instagram_post_id", outcome.InstagramPostID)
}

// intervalElapsed reports whether enough wall-clock time has passed
// since the platform's most recent live post. The reference point is the
// newest created_at among published posts; no live post means the
// interval is trivially satisfied.
func (s *Scheduler) intervalElapsed(sc *models.ScheduleConfig, posts []*models.Post) bool {
	var lastPublishedAt int64
	for _, p := range posts {
		if p.IsPublished() && p.CreatedAt.UnixMilli() > lastPublishedAt {
			lastPublishedAt = p.CreatedAt.UnixMilli()
		}
	}
	if lastPublishedAt == 0 {
		return true
	}

	elapsed := s.now().UnixMilli() - lastPublishedAt
	required := int64(sc.HoursBetweenPosts) * time.Hour.Milliseconds()
	return elapsed >= required
}

// nextCandidate picks the highest-position unpublished post; posts
// without a position rank lowest, creation time breaks ties.
func nextCandidate(posts []*models.Post) *models.Post {
	var best *models.Post
	for _, p := range posts {
		if p.IsPublished() {
			continue
		}
		if best == nil {
			best = p
			continue
		}
		if p.SchedulingPosition() > best.SchedulingPosition() {
			best = p
		} else if p.SchedulingPosition() == best.SchedulingPosition() && p.CreatedAt.Before(best.CreatedAt) {
			best = p
		}
	}
	return best
}
