package service

import (
	"context"
	"log/slog"

	config "postpilot/configs"
	"postpilot/internal/repository"
	"postpilot/pkg/utils"
)

type ConnectionInfo struct {
	Connected bool   `json:"connected"`
	PageName  string `json:"page_name,omitempty"`
}

// SettingsService owns the stored publish credentials: the long-lived
// delegated Facebook token, encrypted at rest.
type SettingsService interface {
	GetPublishCredentials(ctx context.Context) (string, bool, error)
	SetFacebookToken(ctx context.Context, token, pageName string) error
	Disconnect(ctx context.Context) error
	ConnectionInfo(ctx context.Context) (*ConnectionInfo, error)
}

type settingsService struct {
	cfg config.Config
	sr  repository.SettingsRepository
}

func NewSettingsService(cfg config.Config, sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		cfg: cfg,
		sr:  sr,
	}
}

// GetPublishCredentials returns the decrypted delegated token, or
// ok=false when no account is connected. Absence is not an error:
// upload-only operation is a supported mode.
func (s *settingsService) GetPublishCredentials(ctx context.Context) (string, bool, error) {
	encrypted, isExist, err := s.sr.Get(ctx, repository.SettingFacebookToken)
	if err != nil {
		return "", false, err
	}
	if !isExist || encrypted == "" {
		return "", false, nil
	}

	token, err := utils.Decrypt(encrypted, []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", false, err
	}

	return token, true, nil
}

func (s *settingsService) SetFacebookToken(ctx context.Context, token, pageName string) error {
	encrypted, err := utils.Encrypt([]byte(token), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	if err := s.sr.Set(ctx, repository.SettingFacebookToken, encrypted); err != nil {
		return err
	}

	if pageName != "" {
		if err := s.sr.Set(ctx, repository.SettingFacebookPage, pageName); err != nil {
			return err
		}
	}

	return nil
}

func (s *settingsService) Disconnect(ctx context.Context) error {
	if err := s.sr.Delete(ctx, repository.SettingFacebookToken); err != nil {
		return err
	}
	return s.sr.Delete(ctx, repository.SettingFacebookPage)
}

func (s *settingsService) ConnectionInfo(ctx context.Context) (*ConnectionInfo, error) {
	_, connected, err := s.GetPublishCredentials(ctx)
	if err != nil {
		return nil, err
	}

	pageName, _, err := s.sr.Get(ctx, repository.SettingFacebookPage)
	if err != nil {
		return nil, err
	}

	return &ConnectionInfo{
		Connected: connected,
		PageName:  pageName,
	}, nil
}
