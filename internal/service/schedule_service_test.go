package service

import (
	"context"
	"testing"

	"postpilot/internal/models"
	"postpilot/internal/repository"
)

type fakeScheduleRepo struct {
	repository.ScheduleRepository
	configs map[string]*models.ScheduleConfig
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{configs: make(map[string]*models.ScheduleConfig)}
}

func (r *fakeScheduleRepo) GetByPlatform(ctx context.Context, platform string) (*models.ScheduleConfig, error) {
	return r.configs[platform], nil
}

func (r *fakeScheduleRepo) Upsert(ctx context.Context, sc *models.ScheduleConfig) error {
	r.configs[sc.Platform] = sc
	return nil
}

func (r *fakeScheduleRepo) SetActive(ctx context.Context, platform string, active bool) error {
	if sc, ok := r.configs[platform]; ok {
		sc.IsActive = active
	}
	return nil
}

func TestPlayCreatesDefaultConfig(t *testing.T) {
	sr := newFakeScheduleRepo()
	svc := NewScheduleService(sr)

	sc, err := svc.Play(context.Background(), models.PlatformInstagram)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !sc.IsActive {
		t.Fatal("play should activate the schedule")
	}
	if sc.HoursBetweenPosts != DefaultHoursBetweenPosts {
		t.Fatalf("first play should use the default interval, got %d", sc.HoursBetweenPosts)
	}
	if sr.configs[models.PlatformInstagram] == nil {
		t.Fatal("config should be persisted")
	}
}

func TestPlayKeepsConfiguredInterval(t *testing.T) {
	sr := newFakeScheduleRepo()
	sr.configs[models.PlatformInstagram] = &models.ScheduleConfig{
		Platform:          models.PlatformInstagram,
		HoursBetweenPosts: 6,
	}
	svc := NewScheduleService(sr)

	sc, err := svc.Play(context.Background(), models.PlatformInstagram)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if sc.HoursBetweenPosts != 6 {
		t.Fatalf("play must not reset the interval, got %d", sc.HoursBetweenPosts)
	}
}

func TestPauseWithoutConfig(t *testing.T) {
	svc := NewScheduleService(newFakeScheduleRepo())

	if err := svc.Pause(context.Background(), models.PlatformInstagram); err == nil {
		t.Fatal("pausing a never-started schedule should fail")
	}
}

func TestPauseFlipsInactive(t *testing.T) {
	sr := newFakeScheduleRepo()
	sr.configs[models.PlatformInstagram] = &models.ScheduleConfig{
		Platform:          models.PlatformInstagram,
		IsActive:          true,
		HoursBetweenPosts: 12,
	}
	svc := NewScheduleService(sr)

	if err := svc.Pause(context.Background(), models.PlatformInstagram); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if sr.configs[models.PlatformInstagram].IsActive {
		t.Fatal("pause should flip the config inactive")
	}
	if sr.configs[models.PlatformInstagram].HoursBetweenPosts != 12 {
		t.Fatal("pause must not touch the interval")
	}
}

func TestSetIntervalBounds(t *testing.T) {
	sr := newFakeScheduleRepo()
	svc := NewScheduleService(sr)
	ctx := context.Background()

	for _, hours := range []int{0, -1, 169, 1000} {
		if err := svc.SetInterval(ctx, models.PlatformInstagram, hours); err == nil {
			t.Errorf("interval %d should be rejected", hours)
		}
	}

	for _, hours := range []int{1, 24, 168} {
		if err := svc.SetInterval(ctx, models.PlatformInstagram, hours); err != nil {
			t.Errorf("interval %d should be accepted: %v", hours, err)
		}
	}

	if sr.configs[models.PlatformInstagram].HoursBetweenPosts != 168 {
		t.Fatalf("last accepted interval should stick, got %d", sr.configs[models.PlatformInstagram].HoursBetweenPosts)
	}
}
