package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"postpilot/internal/repository"
	"postpilot/internal/transfer"
)

// PinterestService prepares pin drafts from uploaded posts. Pinterest is
// a manual destination: the scheduler never auto-publishes it.
type PinterestService interface {
	PreparePin(ctx context.Context, postID string) (*transfer.PinDraft, error)
}

type pinterestService struct {
	pr repository.PostRepository
}

func NewPinterestService(pr repository.PostRepository) PinterestService {
	return &pinterestService{pr: pr}
}

const pinTitleLimit = 100

func (s *pinterestService) PreparePin(ctx context.Context, postID string) (*transfer.PinDraft, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	if len(post.RemoteAssets) == 0 {
		err = errors.New("post has no uploaded assets; upload it before preparing a pin")
		slog.Info(err.Error())
		return nil, err
	}

	title := post.Caption
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	// Truncate on rune boundaries; captions are full of emoji and a byte
	// cut would leave invalid UTF-8.
	if runes := []rune(title); len(runes) > pinTitleLimit {
		title = string(runes[:pinTitleLimit])
	}

	return &transfer.PinDraft{
		PostID:      post.ID,
		ImageURL:    post.RemoteAssets[0].SecureURL,
		Title:       strings.TrimSpace(title),
		Description: post.Caption,
	}, nil
}
