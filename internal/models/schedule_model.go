package models

import "time"

type ScheduleConfig struct {
	Platform          string    `db:"platform" json:"platform"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	HoursBetweenPosts int       `db:"hours_between_posts" json:"hours_between_posts"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const (
	MinHoursBetweenPosts = 1
	MaxHoursBetweenPosts = 168
)
