package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	config "postpilot/configs"
)

func newTestInstagram(t *testing.T, handler http.HandlerFunc) *instagramService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &instagramService{
		cfg: config.Config{
			FacebookAppID:     "app_id",
			FacebookAppSecret: "app_secret",
		},
		baseURL: srv.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	json.NewEncoder(w).Encode(v)
}

func graphError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(http.StatusBadRequest)
	writeJSON(w, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "OAuthException",
			"code":    code,
		},
	})
}

func TestResolvePage(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/accounts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("access_token") != "user_token" {
			t.Errorf("access_token = %q", r.URL.Query().Get("access_token"))
		}
		writeJSON(w, map[string]interface{}{
			"data": []map[string]string{
				{"id": "page_1", "access_token": "page_token_1", "name": "First Page"},
				{"id": "page_2", "access_token": "page_token_2", "name": "Second Page"},
			},
		})
	})

	page, err := s.ResolvePage(context.Background(), "user_token")
	if err != nil {
		t.Fatalf("resolve page: %v", err)
	}
	if page.ID != "page_1" || page.AccessToken != "page_token_1" {
		t.Fatalf("expected the first page, got %+v", page)
	}
}

func TestResolvePageNoDestination(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"data": []map[string]string{}})
	})

	_, err := s.ResolvePage(context.Background(), "user_token")
	if !errors.Is(err, ErrNoDestinationFound) {
		t.Fatalf("expected ErrNoDestinationFound, got %v", err)
	}
}

func TestResolvePageAuthRejected(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		graphError(w, 190, "Error validating access token")
	})

	_, err := s.ResolvePage(context.Background(), "stale_token")

	var authErr *RemoteAuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *RemoteAuthError, got %v", err)
	}
	if authErr.Code != 190 || !strings.Contains(authErr.Message, "validating access token") {
		t.Fatalf("unexpected auth error: %+v", authErr)
	}
}

func TestResolveIGUser(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page_1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("fields") != "instagram_business_account" {
			t.Errorf("fields = %q", r.URL.Query().Get("fields"))
		}
		writeJSON(w, map[string]interface{}{
			"instagram_business_account": map[string]string{"id": "ig_9", "username": "brand"},
		})
	})

	igUser, err := s.ResolveIGUser(context.Background(), "page_1", "page_token")
	if err != nil {
		t.Fatalf("resolve ig user: %v", err)
	}
	if igUser.ID != "ig_9" || igUser.Username != "brand" {
		t.Fatalf("unexpected account: %+v", igUser)
	}
}

func TestResolveIGUserNoChannel(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"id": "page_1"})
	})

	_, err := s.ResolveIGUser(context.Background(), "page_1", "page_token")
	if !errors.Is(err, ErrNoChannelLinked) {
		t.Fatalf("expected ErrNoChannelLinked, got %v", err)
	}
}

// containerRecorder captures every /media payload in arrival order and
// hands out ids c0, c1, ...
type containerRecorder struct {
	payloads []map[string]interface{}
	failAt   int // 1-based call index to reject, 0 = never
	publish  []map[string]interface{}
}

func (rec *containerRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/media_publish"):
			rec.publish = append(rec.publish, payload)
			writeJSON(w, map[string]string{"id": "live_post_1"})
		case strings.HasSuffix(r.URL.Path, "/media"):
			rec.payloads = append(rec.payloads, payload)
			if rec.failAt == len(rec.payloads) {
				graphError(w, 9004, "Media could not be fetched")
				return
			}
			writeJSON(w, map[string]string{"id": fmt.Sprintf("c%d", len(rec.payloads)-1)})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}
}

func TestCreateContainersSingleImage(t *testing.T) {
	rec := &containerRecorder{}
	s := newTestInstagram(t, rec.handler(t))

	id, err := s.CreateContainers(context.Background(), "ig_9", "page_token",
		[]string{"https://cdn.example.com/a.jpg"}, "one image")
	if err != nil {
		t.Fatalf("create containers: %v", err)
	}
	if id != "c0" {
		t.Fatalf("container id = %q", id)
	}
	if len(rec.payloads) != 1 {
		t.Fatalf("expected one container call, got %d", len(rec.payloads))
	}

	p := rec.payloads[0]
	if p["image_url"] != "https://cdn.example.com/a.jpg" || p["caption"] != "one image" {
		t.Fatalf("unexpected payload: %v", p)
	}
	if _, ok := p["is_carousel_item"]; ok {
		t.Fatal("single image must not be a carousel item")
	}
	if _, ok := p["media_type"]; ok {
		t.Fatal("single image needs no media_type")
	}
}

func TestCreateContainersCarousel(t *testing.T) {
	rec := &containerRecorder{}
	s := newTestInstagram(t, rec.handler(t))

	urls := []string{
		"https://cdn.example.com/1.jpg",
		"https://cdn.example.com/2.jpg",
		"https://cdn.example.com/3.jpg",
	}
	id, err := s.CreateContainers(context.Background(), "ig_9", "page_token", urls, "carousel caption")
	if err != nil {
		t.Fatalf("create containers: %v", err)
	}
	if id != "c3" {
		t.Fatalf("parent id = %q", id)
	}
	if len(rec.payloads) != 4 {
		t.Fatalf("expected 3 children + 1 parent, got %d calls", len(rec.payloads))
	}

	for i, url := range urls {
		child := rec.payloads[i]
		if child["image_url"] != url {
			t.Errorf("child %d image_url = %v, want %q", i, child["image_url"], url)
		}
		if child["is_carousel_item"] != true {
			t.Errorf("child %d missing is_carousel_item", i)
		}
		if _, ok := child["caption"]; ok {
			t.Errorf("child %d must not carry the caption", i)
		}
	}

	parent := rec.payloads[3]
	if parent["media_type"] != "CAROUSEL" {
		t.Errorf("parent media_type = %v", parent["media_type"])
	}
	if parent["children"] != "c0,c1,c2" {
		t.Errorf("children = %v, want comma-joined in input order", parent["children"])
	}
	if parent["caption"] != "carousel caption" {
		t.Errorf("parent caption = %v", parent["caption"])
	}
}

func TestCreateContainersChildFailureAborts(t *testing.T) {
	rec := &containerRecorder{failAt: 2}
	s := newTestInstagram(t, rec.handler(t))

	urls := []string{
		"https://cdn.example.com/1.jpg",
		"https://cdn.example.com/2.jpg",
		"https://cdn.example.com/3.jpg",
	}
	_, err := s.CreateContainers(context.Background(), "ig_9", "page_token", urls, "caption")

	var containerErr *ContainerError
	if !errors.As(err, &containerErr) {
		t.Fatalf("expected *ContainerError, got %v", err)
	}
	if containerErr.Code != 9004 {
		t.Fatalf("unexpected code: %d", containerErr.Code)
	}
	if len(rec.payloads) != 2 {
		t.Fatalf("third child and parent must not be attempted, got %d calls", len(rec.payloads))
	}
}

func TestCreateContainersNoImages(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := s.CreateContainers(context.Background(), "ig_9", "page_token", nil, "caption")

	var containerErr *ContainerError
	if !errors.As(err, &containerErr) {
		t.Fatalf("expected *ContainerError, got %v", err)
	}
}

func TestPublishContainer(t *testing.T) {
	rec := &containerRecorder{}
	s := newTestInstagram(t, rec.handler(t))

	id, err := s.PublishContainer(context.Background(), "ig_9", "page_token", "c0")
	if err != nil {
		t.Fatalf("publish container: %v", err)
	}
	if id != "live_post_1" {
		t.Fatalf("post id = %q", id)
	}
	if len(rec.publish) != 1 || rec.publish[0]["creation_id"] != "c0" {
		t.Fatalf("unexpected publish payload: %v", rec.publish)
	}
}

func TestPublishContainerCommitFailure(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		graphError(w, 24, "The media is not ready for publishing")
	})

	_, err := s.PublishContainer(context.Background(), "ig_9", "page_token", "c0")

	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected *CommitError, got %v", err)
	}
	if commitErr.Code != 24 {
		t.Fatalf("unexpected code: %d", commitErr.Code)
	}
}

func TestExchangeLongLivedToken(t *testing.T) {
	s := newTestInstagram(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("grant_type") != "fb_exchange_token" {
			t.Errorf("grant_type = %q", q.Get("grant_type"))
		}
		if q.Get("client_id") != "app_id" || q.Get("client_secret") != "app_secret" {
			t.Errorf("client credentials not forwarded")
		}
		if q.Get("fb_exchange_token") != "short" {
			t.Errorf("fb_exchange_token = %q", q.Get("fb_exchange_token"))
		}
		writeJSON(w, map[string]interface{}{"access_token": "long", "expires_in": 5184000})
	})

	token, err := s.ExchangeLongLivedToken(context.Background(), "short")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "long" {
		t.Fatalf("token = %q", token)
	}
}
