package scheduler

import (
	"context"
	"testing"
	"time"

	"postpilot/internal/models"
	"postpilot/internal/repository"
	"postpilot/internal/service"
	"postpilot/internal/transfer"
)

type fakePostRepo struct {
	repository.PostRepository
	posts         []*models.Post
	statusUpdates map[string]string
}

func (r *fakePostRepo) ListByPlatform(ctx context.Context, platform string) ([]*models.Post, error) {
	return r.posts, nil
}

func (r *fakePostRepo) UpdatePostStatus(ctx context.Context, status string, id string) error {
	if r.statusUpdates == nil {
		r.statusUpdates = make(map[string]string)
	}
	r.statusUpdates[id] = status
	return nil
}

type fakeScheduleRepo struct {
	repository.ScheduleRepository
	cfg *models.ScheduleConfig
}

func (r *fakeScheduleRepo) GetByPlatform(ctx context.Context, platform string) (*models.ScheduleConfig, error) {
	return r.cfg, nil
}

type fakeAttemptRepo struct {
	repository.PublishAttemptRepository
	attempts []*models.PublishAttempt
}

func (r *fakeAttemptRepo) Create(ctx context.Context, pa *models.PublishAttempt) (int64, error) {
	r.attempts = append(r.attempts, pa)
	return int64(len(r.attempts)), nil
}

type fakePublisher struct {
	outcome   *transfer.PublishOutcome
	published []string
	notify    chan string
}

func (p *fakePublisher) Publish(ctx context.Context, postID string, opts service.PublishOptions) *transfer.PublishOutcome {
	p.published = append(p.published, postID)
	if p.notify != nil {
		p.notify <- postID
	}
	if p.outcome != nil {
		return p.outcome
	}
	return &transfer.PublishOutcome{Success: true, ContainerID: "c1", InstagramPostID: "ig1"}
}

func intPtr(v int) *int { return &v }

func pendingPost(id string, position *int, createdAt time.Time) *models.Post {
	return &models.Post{
		ID:        id,
		Platform:  models.PlatformInstagram,
		Status:    models.PostStatusNew,
		Position:  position,
		CreatedAt: createdAt,
	}
}

func publishedPost(id string, createdAt time.Time) *models.Post {
	p := pendingPost(id, nil, createdAt)
	p.InstagramPostID = "ig_" + id
	p.Status = models.PostStatusPublished
	return p
}

func newTestScheduler(pr *fakePostRepo, sr *fakeScheduleRepo, pa *fakeAttemptRepo, pub *fakePublisher, now time.Time) *Scheduler {
	s := New(pr, sr, pa, map[string]service.PublisherService{
		models.PlatformInstagram: pub,
	})
	s.now = func() time.Time { return now }
	return s
}

func activeConfig(hours int) *models.ScheduleConfig {
	return &models.ScheduleConfig{
		Platform:          models.PlatformInstagram,
		IsActive:          true,
		HoursBetweenPosts: hours,
	}
}

func TestCheckSkipsBeforeIntervalElapsed(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{
		publishedPost("old", now.Add(-10*time.Hour)),
		pendingPost("next", intPtr(1), now.Add(-20*time.Hour)),
	}}
	pub := &fakePublisher{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, &fakeAttemptRepo{}, pub, now)
	s.CheckAll()

	if len(pub.published) != 0 {
		t.Fatalf("nothing should publish 10h into a 24h interval, got %v", pub.published)
	}
}

func TestCheckPublishesAfterIntervalElapsed(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{
		publishedPost("old", now.Add(-25*time.Hour)),
		pendingPost("low", intPtr(3), now.Add(-30*time.Hour)),
		pendingPost("high", intPtr(5), now.Add(-29*time.Hour)),
	}}
	pub := &fakePublisher{}
	pa := &fakeAttemptRepo{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, pa, pub, now)
	s.CheckAll()

	if len(pub.published) != 1 {
		t.Fatalf("expected exactly one publish, got %v", pub.published)
	}
	if pub.published[0] != "high" {
		t.Fatalf("expected the highest-position post, got %q", pub.published[0])
	}

	if len(pa.attempts) != 1 || !pa.attempts[0].Success {
		t.Fatalf("expected one successful attempt, got %+v", pa.attempts)
	}
	if pr.statusUpdates["high"] != models.PostStatusPublished {
		t.Fatalf("published post should be marked, got %v", pr.statusUpdates)
	}
}

func TestCheckInactiveConfig(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{pendingPost("p", intPtr(1), now)}}
	pub := &fakePublisher{}

	cfg := activeConfig(24)
	cfg.IsActive = false
	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: cfg}, &fakeAttemptRepo{}, pub, now)
	s.CheckAll()

	if len(pub.published) != 0 {
		t.Fatal("paused schedule must not publish")
	}
}

func TestCheckMissingConfig(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{pendingPost("p", intPtr(1), now)}}
	pub := &fakePublisher{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: nil}, &fakeAttemptRepo{}, pub, now)
	s.CheckAll()

	if len(pub.published) != 0 {
		t.Fatal("platform without a schedule config must not publish")
	}
}

func TestCheckNoCandidates(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{
		publishedPost("a", now.Add(-50*time.Hour)),
		publishedPost("b", now.Add(-40*time.Hour)),
	}}
	pub := &fakePublisher{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, &fakeAttemptRepo{}, pub, now)
	s.CheckAll()

	if len(pub.published) != 0 {
		t.Fatal("fully published queue has nothing to advance")
	}
}

func TestCheckFirstPostNeedsNoWait(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{
		pendingPost("first", intPtr(1), now.Add(-time.Minute)),
	}}
	pub := &fakePublisher{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, &fakeAttemptRepo{}, pub, now)
	s.CheckAll()

	if len(pub.published) != 1 || pub.published[0] != "first" {
		t.Fatalf("a platform with no live posts should publish immediately, got %v", pub.published)
	}
}

func TestNextCandidateOrdering(t *testing.T) {
	now := time.Now()

	t.Run("nil position ranks last", func(t *testing.T) {
		posts := []*models.Post{
			pendingPost("unranked", nil, now.Add(-3*time.Hour)),
			pendingPost("ranked", intPtr(0), now.Add(-time.Hour)),
		}
		if got := nextCandidate(posts); got.ID != "ranked" {
			t.Fatalf("position 0 must beat no position, got %q", got.ID)
		}
	})

	t.Run("creation time breaks ties", func(t *testing.T) {
		posts := []*models.Post{
			pendingPost("newer", intPtr(2), now.Add(-time.Hour)),
			pendingPost("older", intPtr(2), now.Add(-5*time.Hour)),
		}
		if got := nextCandidate(posts); got.ID != "older" {
			t.Fatalf("oldest of equal positions wins, got %q", got.ID)
		}
	})

	t.Run("published posts are never candidates", func(t *testing.T) {
		posts := []*models.Post{
			publishedPost("live", now.Add(-time.Hour)),
			pendingPost("pending", nil, now),
		}
		if got := nextCandidate(posts); got.ID != "pending" {
			t.Fatalf("got %q", got.ID)
		}
	})

	t.Run("no pending posts", func(t *testing.T) {
		if got := nextCandidate([]*models.Post{publishedPost("live", now)}); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})
}

func TestCheckRecordsFailedAttempt(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{pendingPost("p", intPtr(1), now)}}
	pub := &fakePublisher{outcome: &transfer.PublishOutcome{
		Success: false,
		Error:   "post p has no images",
	}}
	pa := &fakeAttemptRepo{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, pa, pub, now)
	s.CheckAll()

	if len(pa.attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(pa.attempts))
	}
	if pa.attempts[0].Success || pa.attempts[0].ErrorMessage != "post p has no images" {
		t.Fatalf("unexpected attempt: %+v", pa.attempts[0])
	}
	if len(pr.statusUpdates) != 0 {
		t.Fatal("failed publish must not change the status")
	}
}

func TestCheckUploadOnlyOutcomeIsNotPublished(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{pendingPost("p", intPtr(1), now)}}
	pub := &fakePublisher{outcome: &transfer.PublishOutcome{
		Success: true,
		Warning: "images uploaded; no Instagram account connected, publishing skipped",
	}}
	pa := &fakeAttemptRepo{}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, pa, pub, now)
	s.CheckAll()

	if len(pa.attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(pa.attempts))
	}
	if pa.attempts[0].Success {
		t.Fatal("upload without a live post is not a completed publish")
	}
	if pa.attempts[0].ErrorMessage == "" {
		t.Fatal("the warning should be recorded")
	}
	if len(pr.statusUpdates) != 0 {
		t.Fatal("status must stay until the post is live")
	}
}

func TestStartStop(t *testing.T) {
	now := time.Now()
	pr := &fakePostRepo{posts: []*models.Post{pendingPost("p", intPtr(1), now)}}
	pub := &fakePublisher{notify: make(chan string, 4)}

	s := newTestScheduler(pr, &fakeScheduleRepo{cfg: activeConfig(24)}, &fakeAttemptRepo{}, pub, now)

	if s.Running() {
		t.Fatal("scheduler must not run before Start")
	}

	s.Start()
	if !s.Running() {
		t.Fatal("Start should mark the scheduler running")
	}

	select {
	case id := <-pub.notify:
		if id != "p" {
			t.Fatalf("unexpected post published: %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start should trigger an immediate check")
	}

	s.Start() // no-op on a running scheduler

	s.Stop()
	if s.Running() {
		t.Fatal("Stop should mark the scheduler stopped")
	}
	s.Stop() // no-op on a stopped scheduler
}
