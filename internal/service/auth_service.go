package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	config "postpilot/configs"
)

type AuthService interface {
	Login(accessKey string) error
	FacebookAuthURL(state string) string
	FacebookCallback(ctx context.Context, code string) error
}

type authService struct {
	cfg      config.Config
	ig       InstagramService
	settings SettingsService
}

func NewAuthService(cfg config.Config, ig InstagramService, settings SettingsService) AuthService {
	return &authService{
		cfg:      cfg,
		ig:       ig,
		settings: settings,
	}
}

// Login checks the operator access key from config. Single-operator
// tool: no user records, one key.
func (s *authService) Login(accessKey string) error {
	if s.cfg.AccessKey == "" {
		err := errors.New("ACCESS_KEY is not configured")
		slog.Info(err.Error())
		return err
	}
	if subtle.ConstantTimeCompare([]byte(accessKey), []byte(s.cfg.AccessKey)) != 1 {
		return errors.New("invalid access key")
	}
	return nil
}

func (s *authService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.FacebookAppID,
		ClientSecret: s.cfg.FacebookAppSecret,
		RedirectURL:  s.cfg.FacebookRedirect,
		Scopes: []string{
			"pages_show_list",
			"pages_read_engagement",
			"instagram_basic",
			"instagram_content_publish",
		},
		Endpoint: facebook.Endpoint,
	}
}

func (s *authService) FacebookAuthURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state)
}

// FacebookCallback finishes the connect flow: exchange the code, trade
// the result for a long-lived delegated token, store it encrypted. The
// page name is resolved for display and is best-effort.
func (s *authService) FacebookCallback(ctx context.Context, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	oauthCfg := s.oauthConfig()
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" || oauthCfg.RedirectURL == "" {
		err := errors.New("facebook OAuth configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	longLived, err := s.ig.ExchangeLongLivedToken(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	pageName := ""
	if page, err := s.ig.ResolvePage(ctx, longLived); err == nil {
		pageName = page.Name
	} else {
		slog.Info("connected, but resolving page name failed", "error", err.Error())
	}

	return s.settings.SetFacebookToken(ctx, longLived, pageName)
}
