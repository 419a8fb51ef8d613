package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"postpilot/internal/models"
	"postpilot/internal/repository"
	"postpilot/internal/transfer"
)

const MsgCloudinaryMissing = "Cloudinary configuration not found. Set CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET."

type PublishOptions struct {
	Folder string
	Tags   []string
}

// PublisherService drives one post through upload and publish. It never
// returns a raw error: callers branch on the outcome's Success/Error
// fields. Upload success is persisted before any publish call, so a
// publish-phase failure leaves the post uploaded and safely retryable.
type PublisherService interface {
	Publish(ctx context.Context, postID string, opts PublishOptions) *transfer.PublishOutcome
}

type publisherService struct {
	pr       repository.PostRepository
	assets   AssetService
	uploader CloudinaryService
	ig       InstagramService
	settings SettingsService

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewPublisherService(
	pr repository.PostRepository,
	assets AssetService,
	uploader CloudinaryService,
	ig InstagramService,
	settings SettingsService) PublisherService {
	return &publisherService{
		pr:       pr,
		assets:   assets,
		uploader: uploader,
		ig:       ig,
		settings: settings,
		inflight: make(map[string]struct{}),
	}
}

// claim marks a post as having a publish attempt in flight. Two attempts
// on the same post must never interleave: the scheduler tick and a
// manual publish can race on the same record.
func (s *publisherService) claim(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[postID]; busy {
		return false
	}
	s.inflight[postID] = struct{}{}
	return true
}

func (s *publisherService) release(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, postID)
}

func fail(msg string) *transfer.PublishOutcome {
	return &transfer.PublishOutcome{Success: false, Error: msg}
}

func (s *publisherService) Publish(ctx context.Context, postID string, opts PublishOptions) *transfer.PublishOutcome {
	if !s.uploader.Configured() {
		return fail(MsgCloudinaryMissing)
	}

	if !s.claim(postID) {
		return fail(fmt.Sprintf("publish already in progress for post %s", postID))
	}
	defer s.release(postID)

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return fail(fmt.Sprintf("error loading post %s: %v", postID, err))
	}
	if post == nil {
		return fail(fmt.Sprintf("post %s not found", postID))
	}
	if len(post.Images) == 0 {
		return fail(fmt.Sprintf("post %s has no images", postID))
	}

	// Resolve every image to bytes before touching the network. A single
	// unreadable image aborts the run; partial uploads of a post's image
	// set are never attempted.
	files := make([]UploadFile, len(post.Images))
	for i, img := range post.Images {
		data, err := s.assets.Get(ctx, img.FileKey)
		if err != nil {
			return fail(fmt.Sprintf("failed to load image %s: %v", img.FileName, err))
		}
		files[i] = UploadFile{Name: img.FileName, MimeType: img.MimeType, Data: data}
	}

	outcomes := s.uploader.UploadAll(ctx, files, UploadOptions{Folder: opts.Folder, Tags: opts.Tags})

	var uploadErrs []string
	for i, o := range outcomes {
		if o.Err != nil {
			uploadErrs = append(uploadErrs, fmt.Sprintf("%s: %v", post.Images[i].FileName, o.Err))
		}
	}
	if len(uploadErrs) > 0 {
		// All-or-nothing: nothing is persisted, earlier remote assets
		// from a previous attempt stay untouched.
		return fail(fmt.Sprintf("%d of %d uploads failed: %s", len(uploadErrs), len(files), strings.Join(uploadErrs, "; ")))
	}

	assets := make([]*models.RemoteAsset, len(outcomes))
	results := make([]transfer.UploadResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = *o.Result
		assets[i] = &models.RemoteAsset{
			PostID:       post.ID,
			PublicID:     o.Result.PublicID,
			SecureURL:    o.Result.SecureURL,
			Width:        o.Result.Width,
			Height:       o.Result.Height,
			Format:       o.Result.Format,
			FileSize:     o.Result.Bytes,
			DisplayOrder: i,
		}
	}

	// Persist the upload result now, independent of the publish phase:
	// a later retry must be able to start from "uploaded, not published".
	if err := s.pr.ReplaceRemoteAssets(ctx, post.ID, assets); err != nil {
		return fail(fmt.Sprintf("uploads succeeded but saving asset refs failed: %v", err))
	}

	outcome := &transfer.PublishOutcome{Success: true, Assets: results}

	token, hasCreds, err := s.settings.GetPublishCredentials(ctx)
	if err != nil {
		outcome.Warning = fmt.Sprintf("images uploaded; reading publish credentials failed: %v", err)
		return outcome
	}
	if !hasCreds {
		// Deliberate soft stop: the tool is usable for asset hosting
		// alone, without auto-publish.
		outcome.Warning = "images uploaded; no Instagram account connected, publishing skipped"
		slog.Info(outcome.Warning, "post_id", post.ID)
		return outcome
	}

	// Re-read the record: the caption may have been edited while the
	// uploads were running, and the publish must carry the current text.
	current, err := s.pr.GetByID(ctx, post.ID)
	if err == nil && current != nil {
		post = current
	}

	imageURLs := make([]string, len(results))
	for i, r := range results {
		imageURLs[i] = r.SecureURL
	}

	containerID, igPostID, err := s.runPublishProtocol(ctx, token, imageURLs, post.Caption)
	if err != nil {
		// Upload already succeeded and is persisted; surface the
		// publish failure as a warning, leave the record retryable.
		outcome.Warning = publishFailureMessage(err)
		slog.Info("publish phase failed", "post_id", post.ID, "error", err.Error())
		return outcome
	}

	if err := s.pr.SetPublishIDs(ctx, post.ID, containerID, igPostID); err != nil {
		outcome.Warning = fmt.Sprintf("post published as %s but saving identifiers failed: %v", igPostID, err)
		return outcome
	}

	outcome.ContainerID = containerID
	outcome.InstagramPostID = igPostID
	return outcome
}

// runPublishProtocol executes the 4-step sequence: resolve page, resolve
// Instagram user, create container(s), commit.
func (s *publisherService) runPublishProtocol(ctx context.Context, userToken string, imageURLs []string, caption string) (containerID, igPostID string, err error) {
	page, err := s.ig.ResolvePage(ctx, userToken)
	if err != nil {
		return "", "", err
	}

	igUser, err := s.ig.ResolveIGUser(ctx, page.ID, page.AccessToken)
	if err != nil {
		return "", "", err
	}

	containerID, err = s.ig.CreateContainers(ctx, igUser.ID, page.AccessToken, imageURLs, caption)
	if err != nil {
		return "", "", err
	}

	igPostID, err = s.ig.PublishContainer(ctx, igUser.ID, page.AccessToken, containerID)
	if err != nil {
		return "", "", err
	}

	return containerID, igPostID, nil
}

// publishFailureMessage turns a protocol error into actionable text for
// the operator.
func publishFailureMessage(err error) string {
	var authErr *RemoteAuthError
	switch {
	case errors.Is(err, ErrNoDestinationFound):
		return "images uploaded; Instagram publish failed: no Facebook page is available to this token - reconnect your account"
	case errors.Is(err, ErrNoChannelLinked):
		return "images uploaded; Instagram publish failed: the Facebook page has no linked Instagram business account - link a channel and retry"
	case errors.As(err, &authErr):
		return fmt.Sprintf("images uploaded; Instagram rejected the connection: %s - reconnect your account", authErr.Message)
	default:
		return fmt.Sprintf("images uploaded; Instagram publish failed: %v", err)
	}
}
