package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "postpilot/configs"
	"postpilot/internal/transfer"
)

// Identity/target resolution failures. Distinguishable so callers can
// tell the user "reconnect your account" vs "link a channel".
var (
	ErrNoDestinationFound = errors.New("no publishing page is available to this token")
	ErrNoChannelLinked    = errors.New("page has no linked instagram business account")
)

// RemoteAuthError means the Graph API rejected the delegated token.
type RemoteAuthError struct {
	Message string
	Code    int
}

func (e *RemoteAuthError) Error() string {
	return fmt.Sprintf("instagram auth error (%d): %s", e.Code, e.Message)
}

// ContainerError covers any failed container-creation call, child or
// parent. Children already created are left behind remotely.
type ContainerError struct {
	Message string
	Code    int
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container creation failed (%d): %s", e.Code, e.Message)
}

// CommitError means containers exist remotely but the final publish
// commit did not go through. Safe to retry from scratch.
type CommitError struct {
	Message string
	Code    int
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("publish commit failed (%d): %s", e.Code, e.Message)
}

// InstagramService implements the 4-step publish protocol. Each step is
// a discrete call with its own failure mode; nothing here retries -
// retry policy belongs to the caller.
type InstagramService interface {
	ResolvePage(ctx context.Context, userToken string) (*transfer.PageAccount, error)
	ResolveIGUser(ctx context.Context, pageID, pageToken string) (*transfer.IGBusinessAccount, error)
	CreateContainers(ctx context.Context, igUserID, pageToken string, imageURLs []string, caption string) (string, error)
	PublishContainer(ctx context.Context, igUserID, pageToken, containerID string) (string, error)
	ExchangeLongLivedToken(ctx context.Context, shortToken string) (string, error)
}

type instagramService struct {
	cfg     config.Config
	baseURL string
	client  *http.Client
}

func NewInstagramService(cfg config.Config) InstagramService {
	return &instagramService{
		cfg:     cfg,
		baseURL: "https://graph.facebook.com/v21.0",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ResolvePage discovers the pages the delegated token can publish
// through and returns the first one with its short-lived page token.
func (s *instagramService) ResolvePage(ctx context.Context, userToken string) (*transfer.PageAccount, error) {
	reqURL := fmt.Sprintf("%s/me/accounts?access_token=%s", s.baseURL, url.QueryEscape(userToken))

	var result transfer.PageAccountsResponse
	if err := s.getJSON(ctx, reqURL, &result); err != nil {
		return nil, &RemoteAuthError{Message: err.Error()}
	}
	if result.Error != nil {
		return nil, &RemoteAuthError{Message: result.Error.Message, Code: result.Error.Code}
	}
	if len(result.Data) == 0 {
		return nil, ErrNoDestinationFound
	}

	return &result.Data[0], nil
}

// ResolveIGUser maps a page to the Instagram business account linked to
// it - the channel posts are actually published into.
func (s *instagramService) ResolveIGUser(ctx context.Context, pageID, pageToken string) (*transfer.IGBusinessAccount, error) {
	reqURL := fmt.Sprintf("%s/%s?fields=instagram_business_account&access_token=%s",
		s.baseURL, pageID, url.QueryEscape(pageToken))

	var result transfer.IGBusinessAccountResponse
	if err := s.getJSON(ctx, reqURL, &result); err != nil {
		return nil, &RemoteAuthError{Message: err.Error()}
	}
	if result.Error != nil {
		return nil, &RemoteAuthError{Message: result.Error.Message, Code: result.Error.Code}
	}
	if result.InstagramBusinessAccount == nil || result.InstagramBusinessAccount.ID == "" {
		return nil, ErrNoChannelLinked
	}

	return result.InstagramBusinessAccount, nil
}

// CreateContainers stages the media. One image yields a directly
// publishable container. Several images yield one child container per
// image, created sequentially in input order, then a parent referencing
// the children comma-joined in that same order. Any child failure aborts
// the step before a parent exists.
func (s *instagramService) CreateContainers(ctx context.Context, igUserID, pageToken string, imageURLs []string, caption string) (string, error) {
	if len(imageURLs) == 0 {
		return "", &ContainerError{Message: "no image URLs to stage"}
	}

	if len(imageURLs) == 1 {
		payload := map[string]interface{}{
			"image_url":    imageURLs[0],
			"caption":      caption,
			"access_token": pageToken,
		}
		return s.createContainer(ctx, igUserID, payload)
	}

	childIDs := make([]string, 0, len(imageURLs))
	for _, imageURL := range imageURLs {
		payload := map[string]interface{}{
			"image_url":        imageURL,
			"is_carousel_item": true,
			"access_token":     pageToken,
		}
		id, err := s.createContainer(ctx, igUserID, payload)
		if err != nil {
			return "", err
		}
		childIDs = append(childIDs, id)
	}

	payload := map[string]interface{}{
		"media_type":   "CAROUSEL",
		"children":     strings.Join(childIDs, ","),
		"caption":      caption,
		"access_token": pageToken,
	}
	return s.createContainer(ctx, igUserID, payload)
}

func (s *instagramService) createContainer(ctx context.Context, igUserID string, payload map[string]interface{}) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/media", s.baseURL, igUserID)

	var result transfer.ContainerResponse
	if err := s.postJSON(ctx, reqURL, payload, &result); err != nil {
		return "", &ContainerError{Message: err.Error()}
	}
	if result.Error != nil {
		return "", &ContainerError{Message: result.Error.Message, Code: result.Error.Code}
	}
	if result.ID == "" {
		return "", &ContainerError{Message: "no container ID returned"}
	}

	return result.ID, nil
}

// PublishContainer issues the final commit and returns the permanent
// post id.
func (s *instagramService) PublishContainer(ctx context.Context, igUserID, pageToken, containerID string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/media_publish", s.baseURL, igUserID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": pageToken,
	}

	var result transfer.ContainerResponse
	if err := s.postJSON(ctx, reqURL, payload, &result); err != nil {
		return "", &CommitError{Message: err.Error()}
	}
	if result.Error != nil {
		return "", &CommitError{Message: result.Error.Message, Code: result.Error.Code}
	}
	if result.ID == "" {
		return "", &CommitError{Message: "no post ID returned"}
	}

	return result.ID, nil
}

// ExchangeLongLivedToken trades the short-lived token from the connect
// flow for a long-lived delegated token.
func (s *instagramService) ExchangeLongLivedToken(ctx context.Context, shortToken string) (string, error) {
	reqURL := fmt.Sprintf(
		"%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		s.baseURL,
		url.QueryEscape(s.cfg.FacebookAppID),
		url.QueryEscape(s.cfg.FacebookAppSecret),
		url.QueryEscape(shortToken),
	)

	var result struct {
		AccessToken string                       `json:"access_token"`
		ExpiresIn   int64                        `json:"expires_in"`
		Error       *transfer.GraphErrorResponse `json:"error,omitempty"`
	}
	if err := s.getJSON(ctx, reqURL, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", &RemoteAuthError{Message: result.Error.Message, Code: result.Error.Code}
	}
	if result.AccessToken == "" {
		return "", errors.New("no access token returned")
	}

	return result.AccessToken, nil
}

func (s *instagramService) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	return s.doJSON(req, out)
}

func (s *instagramService) postJSON(ctx context.Context, reqURL string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.doJSON(req, out)
}

// doJSON decodes every response body, success or not: the Graph API
// reports failures through an error object regardless of HTTP status.
func (s *instagramService) doJSON(req *http.Request, out interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response (status %d): %w", resp.StatusCode, err)
	}

	return nil
}
