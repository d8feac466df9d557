package tagtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

func ptr(v uint64) *uint64 { return &v }

func tag(id uint64, parent *uint64, name, path string) models.Tag {
	return models.Tag{ID: id, ParentID: parent, Name: name, Path: path}
}

func TestToForest(t *testing.T) {
	tags := []models.Tag{
		tag(1, nil, "Frontend", "Frontend"),
		tag(2, ptr(1), "React", "Frontend/React"),
		tag(3, ptr(2), "Hooks", "Frontend/React/Hooks"),
		tag(4, ptr(1), "Vue", "Frontend/Vue"),
		tag(5, nil, "Go", "Go"),
		tag(6, ptr(99), "Orphan", "Gone/Orphan"),
		tag(7, ptr(7), "Loop", "Loop"),
	}

	forest := ToForest(tags)

	require.Len(t, forest, 4)
	assert.Equal(t, []uint64{1, 5, 6, 7}, []uint64{forest[0].ID, forest[1].ID, forest[2].ID, forest[3].ID})
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, uint64(2), forest[0].Children[0].ID)
	assert.Equal(t, uint64(4), forest[0].Children[1].ID)
	require.Len(t, forest[0].Children[0].Children, 1)
	assert.Equal(t, uint64(3), forest[0].Children[0].Children[0].ID)
	assert.Equal(t, len(tags), Count(forest))
}

func TestToForestEveryNodeOnce(t *testing.T) {
	tags := []models.Tag{
		tag(10, ptr(11), "B", "A/B"),
		tag(11, nil, "A", "A"),
		tag(12, ptr(10), "C", "A/B/C"),
		tag(13, ptr(11), "D", "A/D"),
	}

	forest := ToForest(tags)

	seen := map[uint64]int{}
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			seen[n.ID]++
			walk(n.Children)
		}
	}
	walk(forest)

	assert.Len(t, seen, len(tags))
	for id, n := range seen {
		assert.Equal(t, 1, n, "tag %d", id)
	}
}

func TestToForestParentCycle(t *testing.T) {
	tags := []models.Tag{
		tag(1, ptr(2), "A", "A"),
		tag(2, ptr(1), "B", "B"),
		tag(3, nil, "C", "C"),
	}

	forest := ToForest(tags)

	assert.Equal(t, len(tags), Count(forest))
	require.Len(t, forest, 2)
	assert.Equal(t, uint64(3), forest[0].ID)
	assert.Equal(t, uint64(1), forest[1].ID)
	require.Len(t, forest[1].Children, 1)
	assert.Equal(t, uint64(2), forest[1].Children[0].ID)
	assert.Empty(t, forest[1].Children[0].Children)
}

func TestToForestEmpty(t *testing.T) {
	assert.Empty(t, ToForest(nil))
}

func TestPartition(t *testing.T) {
	forest := ToForest([]models.Tag{
		tag(1, nil, "Go", "Go"),
		tag(2, nil, "A/B", "A/B"),
		tag(3, nil, "Backend", "Backend"),
		tag(4, ptr(3), "API", "Backend/API"),
		tag(5, ptr(42), "Lost", "Lost"),
	})

	p := Partition(forest)

	require.Len(t, p.Standalone, 1)
	assert.Equal(t, "Go", p.Standalone[0].Name)
	require.Len(t, p.Hierarchical, 3)
	assert.Equal(t, "A/B", p.Hierarchical[0].Path)
	assert.Equal(t, "Backend", p.Hierarchical[1].Name)
	assert.Equal(t, "Lost", p.Hierarchical[2].Name)
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Backend/API", []string{"Backend", "API"}},
		{" /Backend// API /", []string{"Backend", "API"}},
		{"Go", []string{"Go"}},
		{"  ", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPath(tt.in))
		})
	}
	assert.Equal(t, "Backend/API", NormalizePath(" Backend / API/"))
}

func TestExpandPath(t *testing.T) {
	tp := ExpandPath("Frontend/React/Hooks", 40)

	assert.Equal(t, "Frontend/React/Hooks", tp.Path)
	require.Len(t, tp.Tags, 3)

	assert.Equal(t, uint64(40), tp.Tags[0].ID)
	assert.Nil(t, tp.Tags[0].ParentID)
	assert.Equal(t, 1, tp.Tags[0].Level)
	assert.Equal(t, "Frontend", tp.Tags[0].Path)

	assert.Equal(t, uint64(41), tp.Tags[1].ID)
	require.NotNil(t, tp.Tags[1].ParentID)
	assert.Equal(t, uint64(40), *tp.Tags[1].ParentID)
	assert.Equal(t, "Frontend/React", tp.Tags[1].Path)

	assert.Equal(t, uint64(42), tp.LeafTag.ID)
	assert.Equal(t, "Hooks", tp.LeafTag.Name)
	assert.Equal(t, 3, tp.LeafTag.Level)
}
