package poster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/crossbot/internal/media"
)

func TestNewPinterestPoster(t *testing.T) {
	t.Run("missing board id", func(t *testing.T) {
		_, err := NewPinterestPoster(PinterestConfig{Token: "tok"})
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Reason, "board_id")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := NewPinterestPoster(PinterestConfig{BoardID: "b1"})
		assert.True(t, IsConfigError(err))
	})
}

func TestPinterestPoster_Publish(t *testing.T) {
	var gotReq pinterestCreateRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/pins", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "pin-123"})
	}))
	defer server.Close()

	p, err := NewPinterestPoster(PinterestConfig{Token: "tok", BoardID: "board-1", BaseURL: server.URL})
	require.NoError(t, err)

	body := strings.Repeat("b", 250)
	h := &media.Handle{URL: "https://cdn.example.com/pin.jpg", Kind: media.KindImage}

	result, err := p.Publish(context.Background(), Request{Text: body, Media: []*media.Handle{h}})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "board-1", gotReq.BoardID)

	// Title is cut to exactly 100 runes; description keeps the full body.
	assert.Equal(t, 100, utf8.RuneCountInString(gotReq.Title))
	assert.Equal(t, body[:100], gotReq.Title)
	assert.Equal(t, body, gotReq.Description)

	// The image URL is passed through without re-upload.
	assert.Equal(t, "image_url", gotReq.MediaSource.SourceType)
	assert.Equal(t, "https://cdn.example.com/pin.jpg", gotReq.MediaSource.URL)

	assert.Equal(t, "pin-123", result.PostID)
	assert.Equal(t, "https://www.pinterest.com/pin/pin-123/", result.PostURL)
}

func TestPinterestPoster_Publish_Errors(t *testing.T) {
	t.Run("rejected token is a config error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		p, err := NewPinterestPoster(PinterestConfig{Token: "bad", BoardID: "b1", BaseURL: server.URL})
		require.NoError(t, err)

		h := &media.Handle{URL: "https://cdn.example.com/pin.jpg"}
		_, err = p.Publish(context.Background(), Request{Text: "t", Media: []*media.Handle{h}})
		assert.True(t, IsConfigError(err))
	})

	t.Run("unknown board is a config error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		p, err := NewPinterestPoster(PinterestConfig{Token: "tok", BoardID: "gone", BaseURL: server.URL})
		require.NoError(t, err)

		h := &media.Handle{URL: "https://cdn.example.com/pin.jpg"}
		_, err = p.Publish(context.Background(), Request{Text: "t", Media: []*media.Handle{h}})
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Reason, "gone")
	})

	t.Run("server error is a platform error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		p, err := NewPinterestPoster(PinterestConfig{Token: "tok", BoardID: "b1", BaseURL: server.URL})
		require.NoError(t, err)

		h := &media.Handle{URL: "https://cdn.example.com/pin.jpg"}
		_, err = p.Publish(context.Background(), Request{Text: "t", Media: []*media.Handle{h}})
		var pe *PlatformError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("missing image url fails without a call", func(t *testing.T) {
		p, err := NewPinterestPoster(PinterestConfig{Token: "tok", BoardID: "b1", BaseURL: "http://127.0.0.1:0"})
		require.NoError(t, err)

		_, err = p.Publish(context.Background(), Request{Text: "t"})
		assert.Error(t, err)
	})
}
