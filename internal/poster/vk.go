package poster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdulachik/crossbot/internal/account"
)

const (
	vkDefaultBaseURL = "https://api.vk.com"
	vkAPIVersion     = "5.199"
)

// VKPoster publishes wall posts through the VK API. Attachments go
// through the two-step wall photo upload (obtain upload server, upload,
// save) before the single wall.post call.
type VKPoster struct {
	client  *http.Client
	token   string
	ownerID string
	baseURL string
}

// VKConfig holds configuration for the VK poster.
type VKConfig struct {
	Token   string
	OwnerID string // wall owner; negative for a group wall
	BaseURL string // overridable for tests
}

// NewVKPoster creates a VK wall poster. The owner id is a required
// destination setting.
func NewVKPoster(cfg VKConfig) (*VKPoster, error) {
	if cfg.Token == "" {
		return nil, &ConfigError{Platform: account.PlatformVK, Reason: "access token is empty"}
	}
	if cfg.OwnerID == "" {
		return nil, &ConfigError{Platform: account.PlatformVK, Reason: `setting "owner_id" is missing`}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = vkDefaultBaseURL
	}

	return &VKPoster{
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   cfg.Token,
		ownerID: cfg.OwnerID,
		baseURL: baseURL,
	}, nil
}

// Platform returns the platform name.
func (v *VKPoster) Platform() account.Platform {
	return account.PlatformVK
}

// Publish uploads each local attachment individually and then makes one
// wall.post call with the joined attachment tokens. A failed upload is
// logged and skipped; the wall post degrades to the remaining
// attachments rather than failing outright.
func (v *VKPoster) Publish(ctx context.Context, req Request) (*Result, error) {
	var attachments []string
	for _, h := range req.Media {
		if !h.Local() {
			slog.Warn("skipping non-local VK attachment", "url", h.URL)
			continue
		}

		token, err := v.uploadWallPhoto(ctx, h.Path)
		if err != nil {
			slog.Warn("VK photo upload failed, skipping attachment",
				"path", h.Path,
				"error", err,
			)
			continue
		}
		attachments = append(attachments, token)
	}

	params := url.Values{}
	params.Set("owner_id", v.ownerID)
	params.Set("message", req.Text)
	if len(attachments) > 0 {
		params.Set("attachments", strings.Join(attachments, ","))
	}

	var resp struct {
		PostID int64 `json:"post_id"`
	}
	if err := v.call(ctx, "wall.post", params, &resp); err != nil {
		return nil, err
	}

	postID := fmt.Sprintf("%s_%d", v.ownerID, resp.PostID)
	return &Result{
		PostID:  postID,
		PostURL: fmt.Sprintf("https://vk.com/wall%s", postID),
	}, nil
}

// uploadWallPhoto runs the two-call upload protocol for one photo and
// returns the "photo{owner}_{id}" attachment token.
func (v *VKPoster) uploadWallPhoto(ctx context.Context, path string) (string, error) {
	groupID := strings.TrimPrefix(v.ownerID, "-")

	params := url.Values{}
	params.Set("group_id", groupID)

	var uploadServer struct {
		UploadURL string `json:"upload_url"`
	}
	if err := v.call(ctx, "photos.getWallUploadServer", params, &uploadServer); err != nil {
		return "", err
	}

	upload, err := v.uploadFile(ctx, uploadServer.UploadURL, path)
	if err != nil {
		return "", &PlatformError{Platform: account.PlatformVK, Op: "upload photo", Err: err}
	}

	saveParams := url.Values{}
	saveParams.Set("group_id", groupID)
	saveParams.Set("server", fmt.Sprint(upload.Server))
	saveParams.Set("photo", upload.Photo)
	saveParams.Set("hash", upload.Hash)

	var saved []struct {
		OwnerID int64 `json:"owner_id"`
		ID      int64 `json:"id"`
	}
	if err := v.call(ctx, "photos.saveWallPhoto", saveParams, &saved); err != nil {
		return "", err
	}
	if len(saved) == 0 {
		return "", &PlatformError{
			Platform: account.PlatformVK,
			Op:       "photos.saveWallPhoto",
			Err:      fmt.Errorf("empty response"),
		}
	}

	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

type vkUploadResponse struct {
	Server int64  `json:"server"`
	Photo  string `json:"photo"`
	Hash   string `json:"hash"`
}

// uploadFile posts the photo bytes to the upload server VK handed out.
func (v *VKPoster) uploadFile(ctx context.Context, uploadURL, path string) (*vkUploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy photo: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, strings.NewReader(body.String()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var upload vkUploadResponse
	if err := json.Unmarshal(respBody, &upload); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &upload, nil
}

// call invokes one VK API method and decodes its "response" payload
// into out. API-level errors arrive with HTTP 200 and an "error" object.
func (v *VKPoster) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", v.token)
	params.Set("v", vkAPIVersion)

	endpoint := v.baseURL + "/method/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return &PlatformError{Platform: account.PlatformVK, Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return &PlatformError{Platform: account.PlatformVK, Op: method, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PlatformError{Platform: account.PlatformVK, Op: method, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &PlatformError{
			Platform: account.PlatformVK,
			Op:       method,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &PlatformError{Platform: account.PlatformVK, Op: method, Err: fmt.Errorf("parse response: %w", err)}
	}
	if envelope.Error != nil {
		return &PlatformError{
			Platform: account.PlatformVK,
			Op:       method,
			Err:      fmt.Errorf("API error %d: %s", envelope.Error.Code, envelope.Error.Message),
		}
	}

	if out != nil && len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return &PlatformError{Platform: account.PlatformVK, Op: method, Err: fmt.Errorf("parse response: %w", err)}
		}
	}
	return nil
}
