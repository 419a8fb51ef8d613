package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"postpilot/internal/models"
)

type ScheduleRepository interface {
	GetByPlatform(ctx context.Context, platform string) (*models.ScheduleConfig, error)
	List(ctx context.Context) ([]*models.ScheduleConfig, error)
	Upsert(ctx context.Context, sc *models.ScheduleConfig) error
	SetActive(ctx context.Context, platform string, active bool) error
}

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) GetByPlatform(ctx context.Context, platform string) (*models.ScheduleConfig, error) {
	query := `
		SELECT platform, is_active, hours_between_posts, created_at, updated_at
		FROM schedule_configs
		WHERE platform = $1
	`
	row := r.db.QueryRowContext(ctx, query, platform)

	var sc models.ScheduleConfig
	err := row.Scan(&sc.Platform, &sc.IsActive, &sc.HoursBetweenPosts, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sc, nil
}

func (r *scheduleRepository) List(ctx context.Context) ([]*models.ScheduleConfig, error) {
	query := `
		SELECT platform, is_active, hours_between_posts, created_at, updated_at
		FROM schedule_configs
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var configs []*models.ScheduleConfig
	for rows.Next() {
		var sc models.ScheduleConfig
		err := rows.Scan(&sc.Platform, &sc.IsActive, &sc.HoursBetweenPosts, &sc.CreatedAt, &sc.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		configs = append(configs, &sc)
	}
	return configs, rows.Err()
}

func (r *scheduleRepository) Upsert(ctx context.Context, sc *models.ScheduleConfig) error {
	query := `
		INSERT INTO schedule_configs (platform, is_active, hours_between_posts)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform) DO UPDATE
		SET is_active = EXCLUDED.is_active,
			hours_between_posts = EXCLUDED.hours_between_posts,
			updated_at = $4
	`
	_, err := r.db.ExecContext(ctx, query, sc.Platform, sc.IsActive, sc.HoursBetweenPosts, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduleRepository) SetActive(ctx context.Context, platform string, active bool) error {
	query := `
		UPDATE schedule_configs
		SET is_active = $1,
			updated_at = $2
		WHERE platform = $3
	`
	_, err := r.db.ExecContext(ctx, query, active, time.Now(), platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
