//go:build functional

package test_functional

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	tagResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
		Path string `json:"path"`
	}

	tagPathResp struct {
		Path    string    `json:"path"`
		Tags    []tagResp `json:"tags"`
		LeafTag tagResp   `json:"leafTag"`
	}

	bookmarkResp struct {
		ID       uint64        `json:"id"`
		Title    *string       `json:"title"`
		URL      string        `json:"url"`
		Tags     []tagResp     `json:"tags"`
		TagPaths []tagPathResp `json:"tagPaths"`
	}

	bookmarkEnvelope struct {
		Success bool          `json:"success"`
		Data    *bookmarkResp `json:"data"`
		Message string        `json:"message"`
		Error   string        `json:"error"`
	}

	bookmarkListEnvelope struct {
		Success bool           `json:"success"`
		Data    []bookmarkResp `json:"data"`
	}
)

func TestBookmarksCrud(t *testing.T) {
	defer FlushDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	t.Run("create with tags", func(t *testing.T) {
		resp, err := client().R().
			SetContext(ctx).
			SetResult(&bookmarkEnvelope{}).
			SetBody(`{"url": "https://go.dev", "title": "Go", "tags": ["#Go", "#Backend/API"]}`).
			Post(endpoint("/bookmarks", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode())

		got, ok := resp.Result().(*bookmarkEnvelope)
		require.True(t, ok)
		require.NotNil(t, got.Data)
		assert.Equal(t, "https://go.dev", got.Data.URL)
		require.Len(t, got.Data.Tags, 1)
		assert.Equal(t, "Go", got.Data.Tags[0].Name)
		require.Len(t, got.Data.TagPaths, 1)
		assert.Equal(t, "Backend/API", got.Data.TagPaths[0].Path)

		var n int
		err = DBConn.QueryRow(ctx, "SELECT count(*) FROM tags WHERE path IN ('Backend', 'Backend/API')").Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("duplicate url", func(t *testing.T) {
		resp, err := client().R().
			SetContext(ctx).
			SetError(&bookmarkEnvelope{}).
			SetBody(`{"url": "https://go.dev"}`).
			Post(endpoint("/bookmarks", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode())

		got, ok := resp.Error().(*bookmarkEnvelope)
		require.True(t, ok)
		require.NotNil(t, got.Data)
		assert.Equal(t, "https://go.dev", got.Data.URL)
	})

	t.Run("list by menu path", func(t *testing.T) {
		resp, err := client().R().
			SetContext(ctx).
			SetResult(&bookmarkListEnvelope{}).
			Get(endpoint("/bookmarks", url.Values{"menuPath": {"Backend"}}))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())

		got := resp.Result().(*bookmarkListEnvelope)
		require.Len(t, got.Data, 1)
		assert.Equal(t, "https://go.dev", got.Data[0].URL)
	})

	t.Run("update and delete", func(t *testing.T) {
		var id uint64
		err := DBConn.QueryRow(ctx, "SELECT id FROM bookmarks WHERE url = $1", "https://go.dev").Scan(&id)
		require.NoError(t, err)
		query := url.Values{"id": {strconv.FormatUint(id, 10)}}

		resp, err := client().R().
			SetContext(ctx).
			SetResult(&bookmarkEnvelope{}).
			SetBody(`{"title": "The Go Programming Language", "url": "https://go.dev/"}`).
			Put(endpoint("/bookmarks", query))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "The Go Programming Language", *resp.Result().(*bookmarkEnvelope).Data.Title)

		resp, err = client().R().SetContext(ctx).Delete(endpoint("/bookmarks", query))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())

		var links int
		err = DBConn.QueryRow(ctx,
			"SELECT (SELECT count(*) FROM bookmark_tags WHERE bookmark_id = $1) + (SELECT count(*) FROM bookmark_tag_paths WHERE bookmark_id = $1)",
			id).Scan(&links)
		require.NoError(t, err)
		assert.Zero(t, links)

		resp, err = client().R().SetContext(ctx).Delete(endpoint("/bookmarks", query))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestUnauthorized(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	resp, err := client().R().
		SetContext(ctx).
		SetHeader("Authorization", "wrong").
		SetBody(`{"url": "https://go.dev"}`).
		Post(endpoint("/bookmarks", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, `Basic realm="Bookmarker API"`, resp.Header().Get("WWW-Authenticate"))
}

func TestAISettings(t *testing.T) {
	defer FlushDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	type Settings struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"maxTokens"`
	}

	resp, err := client().R().
		SetContext(ctx).
		SetBody(`{"model": "gpt-4o-mini", "temperature": 0.2, "maxTokens": 512}`).
		Post(endpoint("/settings/ai", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = client().R().
		SetContext(ctx).
		SetResult(&Settings{}).
		Get(endpoint("/settings/ai", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, &Settings{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 512}, resp.Result())
}
