package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"postpilot/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	AddImage(ctx context.Context, tx *sql.Tx, img *models.PostImage) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByPlatform(ctx context.Context, platform string) ([]*models.Post, error)
	UpdateCaption(ctx context.Context, id, caption string) error
	UpdatePostStatus(ctx context.Context, status string, id string) error
	UpdatePositions(ctx context.Context, orderedIDs []string) error
	ReplaceRemoteAssets(ctx context.Context, postID string, assets []*models.RemoteAsset) error
	SetPublishIDs(ctx context.Context, postID, containerID, instagramPostID string) error
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		INSERT INTO posts (id, platform, caption, status, position)
		VALUES ($1, $2, $3, $4, $5)
	`

	var err error
	var position sql.NullInt64
	if post.Position != nil {
		position = sql.NullInt64{Int64: int64(*post.Position), Valid: true}
	}

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, post.ID, post.Platform, post.Caption, post.Status, position)
	} else {
		_, err = r.db.ExecContext(ctx, query, post.ID, post.Platform, post.Caption, post.Status, position)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) AddImage(ctx context.Context, tx *sql.Tx, img *models.PostImage) error {
	query := `
		INSERT INTO post_images (post_id, file_key, file_name, mime_type, file_size, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, img.PostID, img.FileKey, img.FileName, img.MimeType, img.FileSize, img.DisplayOrder)
	} else {
		_, err = r.db.ExecContext(ctx, query, img.PostID, img.FileKey, img.FileName, img.MimeType, img.FileSize, img.DisplayOrder)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT id, platform, caption, status, position, container_id, instagram_post_id, created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	post.Images, err = r.listImages(ctx, id)
	if err != nil {
		return nil, err
	}

	post.RemoteAssets, err = r.listRemoteAssets(ctx, id)
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByPlatform(ctx context.Context, platform string) ([]*models.Post, error) {
	query := `
		SELECT id, platform, caption, status, position, container_id, instagram_post_id, created_at, updated_at
		FROM posts
		WHERE platform = $1
		ORDER BY COALESCE(position, -1) DESC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, platform)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) listImages(ctx context.Context, postID string) ([]*models.PostImage, error) {
	query := `
		SELECT post_id, file_key, file_name, mime_type, file_size, display_order, created_at
		FROM post_images
		WHERE post_id = $1
		ORDER BY display_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var images []*models.PostImage
	for rows.Next() {
		var img models.PostImage
		err := rows.Scan(&img.PostID, &img.FileKey, &img.FileName, &img.MimeType, &img.FileSize, &img.DisplayOrder, &img.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (r *postRepository) listRemoteAssets(ctx context.Context, postID string) ([]*models.RemoteAsset, error) {
	query := `
		SELECT post_id, public_id, secure_url, width, height, format, file_size, display_order
		FROM remote_assets
		WHERE post_id = $1
		ORDER BY display_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.RemoteAsset
	for rows.Next() {
		var a models.RemoteAsset
		err := rows.Scan(&a.PostID, &a.PublicID, &a.SecureURL, &a.Width, &a.Height, &a.Format, &a.FileSize, &a.DisplayOrder)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *postRepository) UpdateCaption(ctx context.Context, id, caption string) error {
	query := `
		UPDATE posts
		SET caption = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, caption, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdatePostStatus(ctx context.Context, status string, id string) error {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdatePositions rewrites position values from display order: the first
// id gets the highest position, so the top of the grid publishes first.
func (r *postRepository) UpdatePositions(ctx context.Context, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `UPDATE posts SET position = $1, updated_at = $2 WHERE id = $3`
	now := time.Now()
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, query, len(orderedIDs)-i, now, id); err != nil {
			tx.Rollback()
			slog.Info(err.Error())
			return err
		}
	}

	return tx.Commit()
}

// ReplaceRemoteAssets swaps the uploaded-asset set wholesale in one
// transaction. A re-upload overwrites, never appends.
func (r *postRepository) ReplaceRemoteAssets(ctx context.Context, postID string, assets []*models.RemoteAsset) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM remote_assets WHERE post_id = $1`, postID); err != nil {
		tx.Rollback()
		slog.Info(err.Error())
		return err
	}

	query := `
		INSERT INTO remote_assets (post_id, public_id, secure_url, width, height, format, file_size, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, a := range assets {
		_, err := tx.ExecContext(ctx, query, postID, a.PublicID, a.SecureURL, a.Width, a.Height, a.Format, a.FileSize, a.DisplayOrder)
		if err != nil {
			tx.Rollback()
			slog.Info(err.Error())
			return err
		}
	}

	return tx.Commit()
}

func (r *postRepository) SetPublishIDs(ctx context.Context, postID, containerID, instagramPostID string) error {
	query := `
		UPDATE posts
		SET container_id = $1,
			instagram_post_id = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, containerID, instagramPostID, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var position sql.NullInt64
	err := row.Scan(&post.ID, &post.Platform, &post.Caption, &post.Status, &position,
		&post.ContainerID, &post.InstagramPostID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if position.Valid {
		p := int(position.Int64)
		post.Position = &p
	}
	return &post, nil
}
