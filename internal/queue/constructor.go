package queue

import (
	"postpilot/internal/repository"
	"postpilot/internal/service"
)

type Queue struct {
	pr         repository.PostRepository
	pa         repository.PublishAttemptRepository
	publishers map[string]service.PublisherService
}

func NewQueue(
	pr repository.PostRepository,
	pa repository.PublishAttemptRepository,
	publishers map[string]service.PublisherService) *Queue {
	return &Queue{
		pr:         pr,
		pa:         pa,
		publishers: publishers,
	}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
