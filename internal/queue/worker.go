package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"postpilot/internal/models"
	"postpilot/internal/service"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.PublishPost(ctx, payload.PostID)
}

// PublishPost is the manual publish path. It drives the same publisher
// as the scheduler; the scheduler's pacing is not consulted here - a
// manual publish is the operator overriding the cadence.
func (q *Queue) PublishPost(ctx context.Context, postID string) error {
	post, err := q.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %s not found", postID)
	}

	publisher, ok := q.publishers[post.Platform]
	if !ok {
		return fmt.Errorf("platform %s has no publisher", post.Platform)
	}

	outcome := publisher.Publish(ctx, postID, service.PublishOptions{})

	attempt := models.PublishAttempt{
		PostID:   postID,
		Platform: post.Platform,
		Success:  outcome.Published(),
	}
	if outcome.Error != "" {
		attempt.ErrorMessage = outcome.Error
	} else if outcome.Warning != "" {
		attempt.ErrorMessage = outcome.Warning
	}
	if _, err := q.pa.Create(ctx, &attempt); err != nil {
		slog.Info("failed to record publish attempt", "post_id", postID, "error", err.Error())
	}

	if !outcome.Success {
		slog.Info("manual publish failed", "post_id", postID, "error", outcome.Error)
		return fmt.Errorf("publish failed: %s", outcome.Error)
	}

	if outcome.Warning != "" {
		slog.Info("manual publish finished with warning", "post_id", postID, "warning", outcome.Warning)
	}

	return nil
}
