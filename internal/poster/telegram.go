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
	"strconv"
	"strings"
	"time"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/media"
)

const (
	telegramDefaultBaseURL = "https://api.telegram.org"

	// telegramCaptionLimit is the Bot API cap on media captions.
	telegramCaptionLimit = 1024
)

// TelegramPoster publishes to a Telegram channel through the Bot API.
// One message carries at most one attachment; the first media item
// determines the send method (photo, video or document).
type TelegramPoster struct {
	client  *http.Client
	token   string
	chatID  string
	baseURL string
}

// TelegramConfig holds configuration for the Telegram poster.
type TelegramConfig struct {
	Token   string
	ChatID  string // channel id or @username
	BaseURL string // overridable for tests
}

// NewTelegramPoster creates a Telegram channel poster. The chat id is a
// required destination setting.
func NewTelegramPoster(cfg TelegramConfig) (*TelegramPoster, error) {
	if cfg.Token == "" {
		return nil, &ConfigError{Platform: account.PlatformTelegram, Reason: "bot token is empty"}
	}
	if cfg.ChatID == "" {
		return nil, &ConfigError{Platform: account.PlatformTelegram, Reason: `setting "chat_id" is missing`}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = telegramDefaultBaseURL
	}

	return &TelegramPoster{
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		baseURL: baseURL,
	}, nil
}

// Platform returns the platform name.
func (t *TelegramPoster) Platform() account.Platform {
	return account.PlatformTelegram
}

// Publish sends one message to the channel. With no media it is a plain
// sendMessage; otherwise the first attachment picks sendPhoto/sendVideo/
// sendDocument, uploaded from disk when local or referenced by URL when
// the download fell back.
func (t *TelegramPoster) Publish(ctx context.Context, req Request) (*Result, error) {
	h := firstMedia(req)
	if h == nil {
		return t.sendMessage(ctx, req.Text)
	}

	method, field := telegramMethodFor(h.Kind)
	caption := TruncateRunes(req.Text, telegramCaptionLimit)

	if h.Local() {
		return t.sendLocalMedia(ctx, method, field, h.Path, caption)
	}
	return t.sendRemoteMedia(ctx, method, field, h.URL, caption)
}

func telegramMethodFor(kind media.Kind) (method, field string) {
	switch kind {
	case media.KindImage:
		return "sendPhoto", "photo"
	case media.KindVideo:
		return "sendVideo", "video"
	default:
		return "sendDocument", "document"
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *TelegramPoster) sendMessage(ctx context.Context, text string) (*Result, error) {
	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	}
	return t.callJSON(ctx, "sendMessage", payload)
}

func (t *TelegramPoster) sendRemoteMedia(ctx context.Context, method, field, mediaURL, caption string) (*Result, error) {
	payload := map[string]string{
		"chat_id": t.chatID,
		field:     mediaURL,
		"caption": caption,
	}
	return t.callJSON(ctx, method, payload)
}

func (t *TelegramPoster) callJSON(ctx context.Context, method string, payload map[string]string) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req, method)
}

func (t *TelegramPoster) sendLocalMedia(ctx context.Context, method, field, path, caption string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: fmt.Errorf("open media: %w", err)}
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", t.chatID); err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
		}
	}
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: fmt.Errorf("copy media: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), &body)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return t.do(req, method)
}

func (t *TelegramPoster) methodURL(method string) string {
	return t.baseURL + "/bot" + t.token + "/" + method
}

func (t *TelegramPoster) do(req *http.Request, method string) (*Result, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: err}
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return nil, &PlatformError{
			Platform: account.PlatformTelegram,
			Op:       method,
			Err:      fmt.Errorf("status %d: parse response: %w", resp.StatusCode, err),
		}
	}
	if !tgResp.OK {
		desc := tgResp.Description
		if desc == "" {
			desc = fmt.Sprintf("status %d", resp.StatusCode)
		}
		if strings.Contains(desc, "chat not found") {
			return nil, &ConfigError{Platform: account.PlatformTelegram, Reason: desc}
		}
		return nil, &PlatformError{Platform: account.PlatformTelegram, Op: method, Err: fmt.Errorf("%s", desc)}
	}

	messageID := strconv.FormatInt(tgResp.Result.MessageID, 10)
	return &Result{
		PostID:  messageID,
		PostURL: telegramMessageURL(t.chatID, messageID),
	}, nil
}

// telegramMessageURL builds a t.me link for public @username channels.
// Private numeric chat ids have no public URL.
func telegramMessageURL(chatID, messageID string) string {
	if !strings.HasPrefix(chatID, "@") {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%s", strings.TrimPrefix(chatID, "@"), messageID)
}
