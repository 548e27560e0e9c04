package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	vkDefaultBaseURL = "https://api.vk.com"
	vkAPIVersion     = "5.199"
	vkDefaultCount   = 20
)

// VKWallSource polls one VK community wall through the wall.get method.
type VKWallSource struct {
	httpClient *http.Client
	token      string
	ownerID    string
	count      int
	baseURL    string
}

// VKWallConfig holds configuration for the VK wall source.
type VKWallConfig struct {
	Token   string
	OwnerID string
	Count   int
	BaseURL string // overridable for tests
}

// NewVKWallSource creates a VK wall source.
func NewVKWallSource(cfg VKWallConfig) (*VKWallSource, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("vk wall source: access token is empty")
	}
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("vk wall source: owner_id is empty")
	}

	count := cfg.Count
	if count <= 0 {
		count = vkDefaultCount
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = vkDefaultBaseURL
	}

	return &VKWallSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      cfg.Token,
		ownerID:    cfg.OwnerID,
		count:      count,
		baseURL:    baseURL,
	}, nil
}

// Name returns the source name.
func (v *VKWallSource) Name() string {
	return "vk:" + v.ownerID
}

type vkWallResponse struct {
	Response struct {
		Items []vkWallItem `json:"items"`
	} `json:"response"`
	Error *struct {
		ErrorCode int    `json:"error_code"`
		ErrorMsg  string `json:"error_msg"`
	} `json:"error"`
}

type vkWallItem struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	MarkedAsAds int    `json:"marked_as_ads"`
	Attachments []struct {
		Type  string `json:"type"`
		Photo *struct {
			Sizes []vkPhotoSize `json:"sizes"`
		} `json:"photo"`
		Video *struct {
			Player string `json:"player"`
		} `json:"video"`
	} `json:"attachments"`
}

type vkPhotoSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FetchPosts retrieves the latest wall posts, newest first as VK returns
// them. Posts marked as ads are dropped.
func (v *VKWallSource) FetchPosts(ctx context.Context) ([]SourcePost, error) {
	form := url.Values{
		"owner_id":     {v.ownerID},
		"count":        {strconv.Itoa(v.count)},
		"access_token": {v.token},
		"v":            {vkAPIVersion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.baseURL+"/method/wall.get", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("wall.get: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wall.get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wall.get: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wall.get: status %d", resp.StatusCode)
	}

	var wall vkWallResponse
	if err := json.Unmarshal(body, &wall); err != nil {
		return nil, fmt.Errorf("wall.get: parse response: %w", err)
	}
	if wall.Error != nil {
		return nil, fmt.Errorf("wall.get: %s (code %d)", wall.Error.ErrorMsg, wall.Error.ErrorCode)
	}

	posts := make([]SourcePost, 0, len(wall.Response.Items))
	for _, item := range wall.Response.Items {
		if item.MarkedAsAds == 1 {
			continue
		}
		posts = append(posts, SourcePost{
			Source:     v.Name(),
			ExternalID: strconv.FormatInt(item.ID, 10),
			Text:       item.Text,
			MediaURLs:  item.mediaURLs(),
		})
	}
	return posts, nil
}

// mediaURLs extracts one URL per attachment: the largest photo size or
// the video player link.
func (item vkWallItem) mediaURLs() []string {
	var urls []string
	for _, att := range item.Attachments {
		switch {
		case att.Type == "photo" && att.Photo != nil:
			if u := largestPhotoURL(att.Photo.Sizes); u != "" {
				urls = append(urls, u)
			}
		case att.Type == "video" && att.Video != nil && att.Video.Player != "":
			urls = append(urls, att.Video.Player)
		}
	}
	return urls
}

func largestPhotoURL(sizes []vkPhotoSize) string {
	var best vkPhotoSize
	for _, s := range sizes {
		if s.Width*s.Height >= best.Width*best.Height && s.URL != "" {
			best = s
		}
	}
	return best.URL
}
