package service

import (
	"context"
	"fmt"
	"log/slog"

	"postpilot/internal/models"
	"postpilot/internal/repository"
)

const DefaultHoursBetweenPosts = 24

// ScheduleService mutates the per-platform pacing config. The config is
// created on the first "play" and never deleted afterwards; pause only
// flips it inactive.
type ScheduleService interface {
	Get(ctx context.Context, platform string) (*models.ScheduleConfig, error)
	Play(ctx context.Context, platform string) (*models.ScheduleConfig, error)
	Pause(ctx context.Context, platform string) error
	SetInterval(ctx context.Context, platform string, hours int) error
}

type scheduleService struct {
	sr repository.ScheduleRepository
}

func NewScheduleService(sr repository.ScheduleRepository) ScheduleService {
	return &scheduleService{sr: sr}
}

func (s *scheduleService) Get(ctx context.Context, platform string) (*models.ScheduleConfig, error) {
	return s.sr.GetByPlatform(ctx, platform)
}

func (s *scheduleService) Play(ctx context.Context, platform string) (*models.ScheduleConfig, error) {
	sc, err := s.sr.GetByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}

	if sc == nil {
		sc = &models.ScheduleConfig{
			Platform:          platform,
			HoursBetweenPosts: DefaultHoursBetweenPosts,
		}
	}
	sc.IsActive = true

	if err := s.sr.Upsert(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *scheduleService) Pause(ctx context.Context, platform string) error {
	sc, err := s.sr.GetByPlatform(ctx, platform)
	if err != nil {
		return err
	}
	if sc == nil {
		err = fmt.Errorf("no schedule exists for platform %s", platform)
		slog.Info(err.Error())
		return err
	}

	return s.sr.SetActive(ctx, platform, false)
}

func (s *scheduleService) SetInterval(ctx context.Context, platform string, hours int) error {
	if hours < models.MinHoursBetweenPosts || hours > models.MaxHoursBetweenPosts {
		err := fmt.Errorf("hours between posts must be between %d and %d",
			models.MinHoursBetweenPosts, models.MaxHoursBetweenPosts)
		slog.Info(err.Error())
		return err
	}

	sc, err := s.sr.GetByPlatform(ctx, platform)
	if err != nil {
		return err
	}
	if sc == nil {
		sc = &models.ScheduleConfig{Platform: platform}
	}
	sc.HoursBetweenPosts = hours

	return s.sr.Upsert(ctx, sc)
}
