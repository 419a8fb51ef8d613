package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"postpilot/internal/models"
	"postpilot/internal/repository"
	"postpilot/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, error)
	List(ctx context.Context, platform string) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID string) (*models.Post, error)
	UpdateCaption(ctx context.Context, postID, caption string) error
	Reorder(ctx context.Context, orderedIDs []string) error
	Remove(ctx context.Context, postID string) error
}

type postService struct {
	db     *sql.DB
	pr     repository.PostRepository
	assets AssetService
}

func NewPostService(db *sql.DB, pr repository.PostRepository, assets AssetService) PostService {
	return &postService{
		db:     db,
		pr:     pr,
		assets: assets,
	}
}

func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return "", err
	}

	platform := pc.Platform
	if platform == "" {
		platform = models.PlatformInstagram
	}
	if platform != models.PlatformInstagram && platform != models.PlatformPinterest {
		err := fmt.Errorf("unknown platform %q", platform)
		slog.Info(err.Error())
		return "", err
	}

	if len(files) == 0 {
		err := errors.New("no files provided for the post")
		slog.Error(err.Error())
		return "", err
	}

	postID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		ID:       postID,
		Platform: platform,
		Caption:  pc.Caption,
		Status:   models.PostStatusNew,
	}

	if err = s.pr.Create(ctx, tx, &post); err != nil {
		return "", fmt.Errorf("error creating post: %w", err)
	}

	if err = s.processFiles(ctx, tx, postID, files); err != nil {
		return "", fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return postID, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, postID string, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"jpg": {}, "jpeg": {}, "png": {}, "webp": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		key, err := gonanoid.New()
		if err != nil {
			return err
		}

		if err := s.assets.Put(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
			return fmt.Errorf("error staging file: %w", err)
		}

		img := models.PostImage{
			PostID:       postID,
			FileKey:      key,
			FileName:     file.Filename,
			MimeType:     fileType.MIME.Value,
			FileSize:     int64(len(fileBytes)),
			DisplayOrder: i,
		}
		if err := s.pr.AddImage(ctx, tx, &img); err != nil {
			return fmt.Errorf("error saving image record: %w", err)
		}
	}
	return nil
}

func (s *postService) List(ctx context.Context, platform string) ([]*models.Post, error) {
	posts, err := s.pr.ListByPlatform(ctx, platform)
	if err != nil {
		return nil, fmt.Errorf("error listing posts")
	}

	// The stored status is advisory; what the grid shows is derived from
	// the authoritative publish identifier.
	for _, post := range posts {
		post.Status = post.DerivedStatus()
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}
	if post == nil {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post.Status = post.DerivedStatus()
	return post, nil
}

func (s *postService) UpdateCaption(ctx context.Context, postID, caption string) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}
	if post.IsPublished() {
		err = errors.New("post is already published; caption can no longer change")
		slog.Info(err.Error())
		return err
	}

	return s.pr.UpdateCaption(ctx, postID, caption)
}

func (s *postService) Reorder(ctx context.Context, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		err := errors.New("no post ids to reorder")
		slog.Info(err.Error())
		return err
	}
	return s.pr.UpdatePositions(ctx, orderedIDs)
}

func (s *postService) Remove(ctx context.Context, postID string) error {
	if postID == "" {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	// Staged bytes are cleaned up best-effort; the record delete wins.
	for _, img := range post.Images {
		if err := s.assets.Remove(ctx, img.FileKey); err != nil {
			slog.Info("failed to remove staged asset", "key", img.FileKey, "error", err.Error())
		}
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post")
	}

	return nil
}
