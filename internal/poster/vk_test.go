package poster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/crossbot/internal/media"
)

// vkTestServer simulates the VK API: the method envelope, the two-step
// photo upload and wall.post.
type vkTestServer struct {
	*httptest.Server

	uploadCalls   int
	failUploadFor int // 1-based upload call to fail, 0 for none
	wallPosts     []map[string]string
}

func newVKTestServer(t *testing.T) *vkTestServer {
	t.Helper()
	s := &vkTestServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/method/photos.getWallUploadServer", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]string{"upload_url": s.URL + "/upload"},
		})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		s.uploadCalls++
		if s.uploadCalls == s.failUploadFor {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"server": 101, "photo": "photo-blob", "hash": "deadbeef",
		})
	})
	mux.HandleFunc("/method/photos.saveWallPhoto", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": []map[string]any{{"owner_id": 555, "id": int64(9000 + s.uploadCalls)}},
		})
	})
	mux.HandleFunc("/method/wall.post", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		s.wallPosts = append(s.wallPosts, map[string]string{
			"owner_id":    r.PostFormValue("owner_id"),
			"message":     r.PostFormValue("message"),
			"attachments": r.PostFormValue("attachments"),
		})
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]int64{"post_id": 77},
		})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func writeTempMedia(t *testing.T, name string) *media.Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))
	return &media.Handle{Path: path, Kind: media.Classify(path)}
}

func TestNewVKPoster(t *testing.T) {
	t.Run("missing owner id", func(t *testing.T) {
		_, err := NewVKPoster(VKConfig{Token: "tok"})
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Reason, "owner_id")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := NewVKPoster(VKConfig{OwnerID: "-1"})
		assert.True(t, IsConfigError(err))
	})
}

func TestVKPoster_Publish_TextOnly(t *testing.T) {
	server := newVKTestServer(t)

	p, err := NewVKPoster(VKConfig{Token: "tok", OwnerID: "-123", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := p.Publish(context.Background(), Request{Text: "hello wall"})
	require.NoError(t, err)

	require.Len(t, server.wallPosts, 1)
	assert.Equal(t, "-123", server.wallPosts[0]["owner_id"])
	assert.Equal(t, "hello wall", server.wallPosts[0]["message"])
	assert.Empty(t, server.wallPosts[0]["attachments"])
	assert.Zero(t, server.uploadCalls)

	assert.Equal(t, "-123_77", result.PostID)
	assert.Equal(t, "https://vk.com/wall-123_77", result.PostURL)
}

func TestVKPoster_Publish_UploadsEachAttachment(t *testing.T) {
	server := newVKTestServer(t)

	p, err := NewVKPoster(VKConfig{Token: "tok", OwnerID: "-123", BaseURL: server.URL})
	require.NoError(t, err)

	handles := []*media.Handle{
		writeTempMedia(t, "a.jpg"),
		writeTempMedia(t, "b.jpg"),
	}
	_, err = p.Publish(context.Background(), Request{Text: "with photos", Media: handles})
	require.NoError(t, err)

	assert.Equal(t, 2, server.uploadCalls)
	require.Len(t, server.wallPosts, 1)
	assert.Equal(t, "photo555_9001,photo555_9002", server.wallPosts[0]["attachments"])
}

func TestVKPoster_Publish_SkipsFailedUpload(t *testing.T) {
	server := newVKTestServer(t)
	server.failUploadFor = 1

	p, err := NewVKPoster(VKConfig{Token: "tok", OwnerID: "-123", BaseURL: server.URL})
	require.NoError(t, err)

	handles := []*media.Handle{
		writeTempMedia(t, "broken.jpg"),
		writeTempMedia(t, "fine.jpg"),
	}
	result, err := p.Publish(context.Background(), Request{Text: "degraded", Media: handles})
	require.NoError(t, err, "one failed upload must not fail the post")

	require.Len(t, server.wallPosts, 1)
	assert.Equal(t, "photo555_9002", server.wallPosts[0]["attachments"])
	assert.Equal(t, "-123_77", result.PostID)
}

func TestVKPoster_Publish_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"error_code": 5, "error_msg": "User authorization failed"},
		})
	}))
	defer server.Close()

	p, err := NewVKPoster(VKConfig{Token: "bad", OwnerID: "-123", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), Request{Text: "hello"})
	var pe *PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "User authorization failed")
}
