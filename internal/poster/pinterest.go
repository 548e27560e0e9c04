package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abdulachik/crossbot/internal/account"
)

const (
	pinterestDefaultBaseURL = "https://api.pinterest.com"

	// pinterestTitleLimit is the pin title cap; the description carries
	// the full text body.
	pinterestTitleLimit = 100
)

// PinterestPoster creates pins on a board. Pinterest accepts remote
// image URLs directly, so media is passed through without re-upload.
type PinterestPoster struct {
	client  *http.Client
	token   string
	boardID string
	baseURL string
}

// PinterestConfig holds configuration for the Pinterest poster.
type PinterestConfig struct {
	Token   string
	BoardID string
	BaseURL string // overridable for tests
}

// NewPinterestPoster creates a Pinterest board poster. The board id is a
// required destination setting.
func NewPinterestPoster(cfg PinterestConfig) (*PinterestPoster, error) {
	if cfg.Token == "" {
		return nil, &ConfigError{Platform: account.PlatformPinterest, Reason: "access token is empty"}
	}
	if cfg.BoardID == "" {
		return nil, &ConfigError{Platform: account.PlatformPinterest, Reason: `setting "board_id" is missing`}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = pinterestDefaultBaseURL
	}

	return &PinterestPoster{
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   cfg.Token,
		boardID: cfg.BoardID,
		baseURL: baseURL,
	}, nil
}

// Platform returns the platform name.
func (p *PinterestPoster) Platform() account.Platform {
	return account.PlatformPinterest
}

type pinterestCreateRequest struct {
	BoardID     string              `json:"board_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	MediaSource pinterestMediaSource `json:"media_source"`
}

type pinterestMediaSource struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

type pinterestCreateResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Publish creates one pin. The title is the text body truncated to the
// title limit; the description is the full body.
func (p *PinterestPoster) Publish(ctx context.Context, req Request) (*Result, error) {
	h := firstMedia(req)
	if h == nil || h.URL == "" {
		return nil, &PlatformError{
			Platform: account.PlatformPinterest,
			Op:       "create pin",
			Err:      fmt.Errorf("no image URL to pin"),
		}
	}

	payload := pinterestCreateRequest{
		BoardID:     p.boardID,
		Title:       TruncateRunes(req.Text, pinterestTitleLimit),
		Description: req.Text,
		MediaSource: pinterestMediaSource{
			SourceType: "image_url",
			URL:        h.URL,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformPinterest, Op: "create pin", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v5/pins", bytes.NewReader(body))
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformPinterest, Op: "create pin", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformPinterest, Op: "create pin", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformPinterest, Op: "create pin", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &ConfigError{Platform: account.PlatformPinterest, Reason: "access token rejected"}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ConfigError{Platform: account.PlatformPinterest, Reason: fmt.Sprintf("board %s not found", p.boardID)}
	case resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK:
		return nil, &PlatformError{
			Platform: account.PlatformPinterest,
			Op:       "create pin",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var created pinterestCreateResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, &PlatformError{Platform: account.PlatformPinterest, Op: "create pin", Err: fmt.Errorf("parse response: %w", err)}
	}

	return &Result{
		PostID:  created.ID,
		PostURL: fmt.Sprintf("https://www.pinterest.com/pin/%s/", created.ID),
	}, nil
}
