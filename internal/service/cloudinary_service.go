package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	config "postpilot/configs"
	"postpilot/internal/transfer"
)

// UploadFile is one binary image destined for the asset host.
type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

type UploadOptions struct {
	Folder string
	Tags   []string
}

// UploadError is the only error type this client returns. Transport
// failures, remote rejections and malformed responses all end up here so
// batch callers can inspect per-file results without type surprises.
type UploadError struct {
	Message  string
	HTTPCode int
}

func (e *UploadError) Error() string {
	if e.HTTPCode != 0 {
		return fmt.Sprintf("upload failed (%d): %s", e.HTTPCode, e.Message)
	}
	return fmt.Sprintf("upload failed: %s", e.Message)
}

// UploadOutcome pairs one input file with its result, in input order.
type UploadOutcome struct {
	Result *transfer.UploadResult
	Err    error
}

type CloudinaryService interface {
	Configured() bool
	Upload(ctx context.Context, file UploadFile, opts UploadOptions) (*transfer.UploadResult, error)
	UploadAll(ctx context.Context, files []UploadFile, opts UploadOptions) []UploadOutcome
}

type cloudinaryService struct {
	cfg     config.Cloudinary
	baseURL string
	client  *http.Client
}

const uploadConcurrency = 4

func NewCloudinaryService(cfg config.Config) CloudinaryService {
	return &cloudinaryService{
		cfg:     cfg.Cloudinary,
		baseURL: "https://api.cloudinary.com/v1_1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *cloudinaryService) Configured() bool {
	return s.cfg.CloudName != "" && s.cfg.UploadPreset != ""
}

func (s *cloudinaryService) Upload(ctx context.Context, file UploadFile, opts UploadOptions) (*transfer.UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, &UploadError{Message: err.Error()}
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, &UploadError{Message: err.Error()}
	}

	w.WriteField("upload_preset", s.cfg.UploadPreset)
	if opts.Folder != "" {
		w.WriteField("folder", opts.Folder)
	}
	if len(opts.Tags) > 0 {
		w.WriteField("tags", strings.Join(opts.Tags, ","))
	}
	if err := w.Close(); err != nil {
		return nil, &UploadError{Message: err.Error()}
	}

	url := fmt.Sprintf("%s/%s/image/upload", s.baseURL, s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, &UploadError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &UploadError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UploadError{Message: err.Error(), HTTPCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp transfer.CloudinaryErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &UploadError{Message: errResp.Error.Message, HTTPCode: resp.StatusCode}
		}
		return nil, &UploadError{Message: "unexpected response from asset host", HTTPCode: resp.StatusCode}
	}

	var result transfer.UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &UploadError{Message: fmt.Sprintf("error parsing response: %v", err), HTTPCode: resp.StatusCode}
	}
	if result.SecureURL == "" {
		return nil, &UploadError{Message: "no asset URL returned", HTTPCode: resp.StatusCode}
	}

	return &result, nil
}

// UploadAll uploads every file concurrently and reports one outcome per
// input, positionally. A single failure neither cancels nor blocks the
// others; all-or-nothing decisions belong to the caller.
func (s *cloudinaryService) UploadAll(ctx context.Context, files []UploadFile, opts UploadOptions) []UploadOutcome {
	outcomes := make([]UploadOutcome, len(files))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, uploadConcurrency)

	for i, file := range files {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, file UploadFile) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := s.Upload(ctx, file, opts)
			outcomes[i] = UploadOutcome{Result: result, Err: err}
		}(i, file)
	}

	wg.Wait()
	return outcomes
}
