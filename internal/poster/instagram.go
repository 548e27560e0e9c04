package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/media"
)

const instagramDefaultBaseURL = "https://i.instagram.com/api/v1"

// InstagramPoster publishes photos and videos to an Instagram feed. The
// platform requires an explicit login/session exchange with the
// username/password pair before any publish call.
type InstagramPoster struct {
	client   *http.Client
	username string
	password string
	baseURL  string

	sessionToken string
}

// InstagramConfig holds configuration for the Instagram poster.
type InstagramConfig struct {
	Login   account.Login
	BaseURL string // overridable for tests
}

// NewInstagramPoster creates an Instagram poster from a login pair.
func NewInstagramPoster(cfg InstagramConfig) (*InstagramPoster, error) {
	if cfg.Login.Username == "" || cfg.Login.Password == "" {
		return nil, &ConfigError{Platform: account.PlatformInstagram, Reason: "username/password credential is incomplete"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = instagramDefaultBaseURL
	}

	return &InstagramPoster{
		client:   &http.Client{Timeout: 60 * time.Second},
		username: cfg.Login.Username,
		password: cfg.Login.Password,
		baseURL:  baseURL,
	}, nil
}

// Platform returns the platform name.
func (ig *InstagramPoster) Platform() account.Platform {
	return account.PlatformInstagram
}

// Publish logs in if needed and uploads the first media item, photo or
// video by apparent type, with the text body as the caption verbatim.
func (ig *InstagramPoster) Publish(ctx context.Context, req Request) (*Result, error) {
	h := firstMedia(req)
	if h == nil || !h.Local() {
		return nil, &PlatformError{
			Platform: account.PlatformInstagram,
			Op:       "publish",
			Err:      fmt.Errorf("no local media to upload"),
		}
	}

	if err := ig.login(ctx); err != nil {
		return nil, err
	}

	endpoint := "/media/photo/"
	if h.Kind == media.KindVideo {
		endpoint = "/media/video/"
	}
	return ig.uploadMedia(ctx, endpoint, h.Path, req.Text)
}

type instagramLoginResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	SessionToken string `json:"session_token"`
}

// login performs the session exchange once per poster instance.
func (ig *InstagramPoster) login(ctx context.Context) error {
	if ig.sessionToken != "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"username": ig.username,
		"password": ig.password,
	})
	if err != nil {
		return &PlatformError{Platform: account.PlatformInstagram, Op: "login", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ig.baseURL+"/accounts/login/", bytes.NewReader(body))
	if err != nil {
		return &PlatformError{Platform: account.PlatformInstagram, Op: "login", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ig.client.Do(req)
	if err != nil {
		return &PlatformError{Platform: account.PlatformInstagram, Op: "login", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PlatformError{Platform: account.PlatformInstagram, Op: "login", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &ConfigError{Platform: account.PlatformInstagram, Reason: "login rejected: check username/password"}
	}
	if resp.StatusCode != http.StatusOK {
		return &PlatformError{
			Platform: account.PlatformInstagram,
			Op:       "login",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var login instagramLoginResponse
	if err := json.Unmarshal(respBody, &login); err != nil {
		return &PlatformError{Platform: account.PlatformInstagram, Op: "login", Err: fmt.Errorf("parse response: %w", err)}
	}
	if login.Status != "ok" || login.SessionToken == "" {
		return &ConfigError{Platform: account.PlatformInstagram, Reason: "login rejected: " + login.Message}
	}

	ig.sessionToken = login.SessionToken
	return nil
}

type instagramMediaResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	MediaID string `json:"media_id"`
	Code    string `json:"code"`
}

func (ig *InstagramPoster) uploadMedia(ctx context.Context, endpoint, path, caption string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: fmt.Errorf("open media: %w", err)}
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("caption", caption); err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: err}
	}
	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: fmt.Errorf("copy media: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ig.baseURL+endpoint, &body)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ig.sessionToken)

	resp, err := ig.client.Do(req)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &PlatformError{
			Platform: account.PlatformInstagram,
			Op:       "upload",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var mediaResp instagramMediaResponse
	if err := json.Unmarshal(respBody, &mediaResp); err != nil {
		return nil, &PlatformError{Platform: account.PlatformInstagram, Op: "upload", Err: fmt.Errorf("parse response: %w", err)}
	}
	if mediaResp.Status != "ok" {
		return nil, &PlatformError{
			Platform: account.PlatformInstagram,
			Op:       "upload",
			Err:      fmt.Errorf("publish rejected: %s", mediaResp.Message),
		}
	}

	return &Result{
		PostID:  mediaResp.MediaID,
		PostURL: fmt.Sprintf("https://www.instagram.com/p/%s/", mediaResp.Code),
	}, nil
}
