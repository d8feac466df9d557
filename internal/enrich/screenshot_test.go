package enrich

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/blob"
)

func newScreenshots(t *testing.T, apiURL string) (*Screenshots, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := blob.NewLocal(dir, "http://files.test")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.ScreenshotAPIURL = apiURL
	cfg.ScreenshotAPIKey = "k"
	s := NewScreenshots(cfg, store, NewHostLimiter(cfg), nop)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s, dir
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("https://x.test", "image/jpeg", time.UnixMilli(1700000000000))
	assert.Regexp(t, regexp.MustCompile(`^screenshots/[0-9a-f]{16}-1700000000000\.jpeg$`), key)
	assert.Equal(t, key, ObjectKey("https://x.test", "image/jpeg", time.UnixMilli(1700000000000)))
	assert.NotEqual(t, key, ObjectKey("https://y.test", "image/jpeg", time.UnixMilli(1700000000000)))
	assert.True(t, strings.HasSuffix(ObjectKey("u", "image/svg+xml", time.Now()), ".svg"))
}

func TestCapture(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://x.test/page", r.URL.Query().Get("url"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer api.Close()

	s, dir := newScreenshots(t, api.URL)
	require.True(t, s.CanCapture())

	publicURL, err := s.Capture(context.Background(), "https://x.test/page")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(publicURL, "http://files.test/screenshots/"))
	assert.True(t, strings.HasSuffix(publicURL, "-1700000000000.jpeg"))

	key := strings.TrimPrefix(publicURL, "http://files.test/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestCaptureAPIError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer api.Close()

	s, _ := newScreenshots(t, api.URL)
	_, err := s.Capture(context.Background(), "https://x.test")
	assert.Error(t, err)
}

func TestStoreClient(t *testing.T) {
	ctx := context.Background()
	s, dir := newScreenshots(t, "http://api.test")
	encoded := base64.StdEncoding.EncodeToString([]byte("gif-bytes"))

	t.Run("data url", func(t *testing.T) {
		got := s.StoreClient(ctx, "https://x.test", "data:image/gif;base64,"+encoded)
		require.NotNil(t, got)
		assert.True(t, strings.HasSuffix(*got, ".gif"))

		key := strings.TrimPrefix(*got, "http://files.test/")
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
		require.NoError(t, err)
		assert.Equal(t, "gif-bytes", string(data))
	})

	t.Run("bare base64 is png", func(t *testing.T) {
		got := s.StoreClient(ctx, "https://x.test", encoded)
		require.NotNil(t, got)
		assert.True(t, strings.HasSuffix(*got, ".png"))
	})

	t.Run("plain url is kept", func(t *testing.T) {
		got := s.StoreClient(ctx, "https://x.test", "https://img.test/shot.png")
		require.NotNil(t, got)
		assert.Equal(t, "https://img.test/shot.png", *got)
	})

	t.Run("broken data url", func(t *testing.T) {
		assert.Nil(t, s.StoreClient(ctx, "https://x.test", "data:image/png;base64,@@@"))
	})
}

func TestStoreClientWithoutStorage(t *testing.T) {
	s := NewScreenshots(testConfig(), nil, NewHostLimiter(testConfig()), nop)

	assert.False(t, s.CanCapture())
	assert.Nil(t, s.StoreClient(context.Background(), "https://x.test", "aGVsbG8="))
	s.Remove(context.Background(), "http://files.test/screenshots/a.png")
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s, dir := newScreenshots(t, "http://api.test")

	stored := s.StoreClient(ctx, "https://x.test", "aGVsbG8=")
	require.NotNil(t, stored)
	key := strings.TrimPrefix(*stored, "http://files.test/")

	s.Remove(ctx, "https://elsewhere.test/"+key)
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)

	s.Remove(ctx, *stored)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}
