package models

import (
	"time"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
)

type (
	Tag struct {
		ID        uint64    `json:"id"`
		Name      string    `json:"name"`
		ParentID  *uint64   `json:"parentId"`
		Level     int       `json:"level"`
		Path      string    `json:"path"`
		Color     *string   `json:"color"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// TagPath is a display chain from root to leaf. Ids inside it are
	// synthetic; see tagtree.ExpandPath.
	TagPath struct {
		Path    string `json:"path"`
		Tags    []Tag  `json:"tags"`
		LeafTag Tag    `json:"leafTag"`
	}

	Bookmark struct {
		ID          uint64    `json:"id"`
		Title       *string   `json:"title"`
		URL         string    `json:"url"`
		Description *string   `json:"description"`
		Favicon     *string   `json:"favicon"`
		Screenshot  *string   `json:"screenshot"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
		Tags        []Tag     `json:"tags"`
		TagPaths    []TagPath `json:"tagPaths"`
	}

	AIConfig struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"maxTokens"`
	}
)

func NewTag(t db.Tag) Tag {
	return Tag{
		ID:        t.ID,
		Name:      t.Name,
		ParentID:  t.ParentID,
		Level:     t.Level,
		Path:      t.Path,
		Color:     t.Color,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func NewTags(tags []db.Tag) []Tag {
	out := make([]Tag, len(tags))
	for i := range tags {
		out[i] = NewTag(tags[i])
	}
	return out
}

func NewBookmark(b db.Bookmark, tags []Tag, paths []TagPath) Bookmark {
	if tags == nil {
		tags = []Tag{}
	}
	if paths == nil {
		paths = []TagPath{}
	}
	return Bookmark{
		ID:          b.ID,
		Title:       b.Title,
		URL:         b.URL,
		Description: b.Description,
		Favicon:     b.Favicon,
		Screenshot:  b.Screenshot,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Tags:        tags,
		TagPaths:    paths,
	}
}
