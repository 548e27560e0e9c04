package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/media"
)

const (
	youtubeDefaultBaseURL = "https://www.googleapis.com"

	// youtubeTitlePrefix starts every uploaded title; the rest is a
	// truncated excerpt of the text body.
	youtubeTitlePrefix = "Shorts: "
	youtubeTitleLimit  = 100

	// youtubeCategoryPeopleBlogs is the "People & Blogs" upload category.
	youtubeCategoryPeopleBlogs = "22"
)

// YouTubePoster uploads short videos through the resumable upload
// protocol: one call to open an upload session, one to send the bytes.
type YouTubePoster struct {
	client  *http.Client
	token   string
	baseURL string
}

// YouTubeConfig holds configuration for the YouTube poster.
type YouTubeConfig struct {
	Token   string
	BaseURL string // overridable for tests
}

// NewYouTubePoster creates a YouTube shorts poster.
func NewYouTubePoster(cfg YouTubeConfig) (*YouTubePoster, error) {
	if cfg.Token == "" {
		return nil, &ConfigError{Platform: account.PlatformYouTube, Reason: "access token is empty"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = youtubeDefaultBaseURL
	}

	return &YouTubePoster{
		client:  &http.Client{Timeout: 5 * time.Minute},
		token:   cfg.Token,
		baseURL: baseURL,
	}, nil
}

// Platform returns the platform name.
func (y *YouTubePoster) Platform() account.Platform {
	return account.PlatformYouTube
}

type youtubeUploadBody struct {
	Snippet youtubeSnippet `json:"snippet"`
	Status  youtubeStatus  `json:"status"`
}

type youtubeSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
}

type youtubeStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type youtubeUploadResponse struct {
	ID string `json:"id"`
}

// Publish uploads the first media item, which must be a local video
// file. The video is public at upload time and explicitly declared not
// made for kids.
func (y *YouTubePoster) Publish(ctx context.Context, req Request) (*Result, error) {
	h := firstMedia(req)
	if h == nil || !h.Local() {
		return nil, &PlatformError{
			Platform: account.PlatformYouTube,
			Op:       "upload",
			Err:      fmt.Errorf("no local video to upload"),
		}
	}
	if h.Kind != media.KindVideo {
		return nil, &PlatformError{
			Platform: account.PlatformYouTube,
			Op:       "upload",
			Err:      fmt.Errorf("media %q is not a video", h.Path),
		}
	}

	title := youtubeTitlePrefix + TruncateRunes(req.Text, youtubeTitleLimit-len(youtubeTitlePrefix))
	body := youtubeUploadBody{
		Snippet: youtubeSnippet{
			Title:       title,
			Description: req.Text,
			CategoryID:  youtubeCategoryPeopleBlogs,
		},
		Status: youtubeStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}

	uploadURL, err := y.openSession(ctx, body)
	if err != nil {
		return nil, err
	}
	return y.sendBytes(ctx, uploadURL, h.Path)
}

// openSession starts a resumable upload and returns the session URL
// from the Location header.
func (y *YouTubePoster) openSession(ctx context.Context, body youtubeUploadBody) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &PlatformError{Platform: account.PlatformYouTube, Op: "open session", Err: err}
	}

	endpoint := y.baseURL + "/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &PlatformError{Platform: account.PlatformYouTube, Op: "open session", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+y.token)

	resp, err := y.client.Do(req)
	if err != nil {
		return "", &PlatformError{Platform: account.PlatformYouTube, Op: "open session", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &PlatformError{Platform: account.PlatformYouTube, Op: "open session", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &ConfigError{Platform: account.PlatformYouTube, Reason: "access token rejected"}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &PlatformError{
			Platform: account.PlatformYouTube,
			Op:       "open session",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	uploadURL := resp.Header.Get("Location")
	if uploadURL == "" {
		return "", &PlatformError{
			Platform: account.PlatformYouTube,
			Op:       "open session",
			Err:      fmt.Errorf("no upload location returned"),
		}
	}
	return uploadURL, nil
}

func (y *YouTubePoster) sendBytes(ctx context.Context, uploadURL, path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformYouTube, Op: "upload", Err: fmt.Errorf("open video: %w", err)}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformYouTube, Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformYouTube, Op: "upload", Err: err}
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "video/*")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformYouTube, Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformYouTube, Op: "upload", Err: err}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &PlatformError{
			Platform: account.PlatformYouTube,
			Op:       "upload",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var uploaded youtubeUploadResponse
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return nil, &PlatformError{Platform: account.PlatformYouTube, Op: "upload", Err: fmt.Errorf("parse response: %w", err)}
	}

	return &Result{
		PostID:  uploaded.ID,
		PostURL: fmt.Sprintf("https://www.youtube.com/shorts/%s", uploaded.ID),
	}, nil
}
