package library

import (
	"context"
	"errors"
	"storyfeed/internal/domain/story"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetch struct {
	calls   int
	stories []story.Story
	err     error
}

func (f *countingFetch) fetch(ctx context.Context) ([]story.Story, error) {
	f.calls++
	return f.stories, f.err
}

// age moves the snapshot's fetch time d into the past.
func age(t *testing.T, c *Cache, d time.Duration) {
	t.Helper()
	snap, err := c.Load()
	require.NoError(t, err)
	snap.LastUpdated = time.Now().Add(-d)
	require.NoError(t, c.Save(snap))
}

func TestGet_FetchesThenServesFromCache(t *testing.T) {
	c := NewCache(t.TempDir(), "http://api.test", time.Hour)
	f := &countingFetch{stories: []story.Story{{StoryID: "1"}, {StoryID: "2"}}}
	ctx := context.Background()

	snap, err := c.Get(ctx, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalStories)
	assert.Equal(t, "http://api.test", snap.Source)

	snap, err = c.Get(ctx, f.fetch)
	require.NoError(t, err)
	assert.Len(t, snap.Stories, 2)
	assert.Equal(t, 1, f.calls)
}

func TestGet_StaleCacheIsRefetched(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Minute)
	f := &countingFetch{stories: []story.Story{{StoryID: "1"}}}
	ctx := context.Background()

	_, err := c.Get(ctx, f.fetch)
	require.NoError(t, err)
	age(t, c, time.Hour)
	assert.False(t, c.IsFresh())

	f.stories = []story.Story{{StoryID: "1"}, {StoryID: "2"}}
	snap, err := c.Get(ctx, f.fetch)
	require.NoError(t, err)
	assert.Len(t, snap.Stories, 2)
	assert.Equal(t, 2, f.calls)
	assert.True(t, c.IsFresh())
}

func TestGet_FallsBackToStaleSnapshot(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Save(&Snapshot{Source: "src", Stories: []story.Story{{StoryID: "old"}}, TotalStories: 1}))
	age(t, c, time.Hour)

	f := &countingFetch{err: errors.New("network down")}
	snap, err := c.Get(ctx, f.fetch)
	require.NoError(t, err)
	require.Len(t, snap.Stories, 1)
	assert.Equal(t, "old", snap.Stories[0].StoryID)
}

func TestGet_FailsWithoutSnapshot(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Minute)
	f := &countingFetch{err: errors.New("network down")}

	_, err := c.Get(context.Background(), f.fetch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
}

func TestGet_EmptyFeedDoesNotOverwrite(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Minute)
	require.NoError(t, c.Save(&Snapshot{Source: "src", Stories: []story.Story{{StoryID: "kept"}}, TotalStories: 1}))
	age(t, c, time.Hour)

	snap, err := c.Get(context.Background(), (&countingFetch{}).fetch)
	require.NoError(t, err)
	assert.Empty(t, snap.Stories)

	loaded, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "kept", loaded.Stories[0].StoryID)
}

func TestGet_LocalEditDoesNotRefreshStaleSnapshot(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Save(&Snapshot{
		Source:      "src",
		Stories:     []story.Story{{StoryID: "old"}},
		LastUpdated: time.Now().Add(-2 * time.Hour),
	}))
	require.False(t, c.IsFresh())

	// edit and save the way submit does
	snap, err := c.Load()
	require.NoError(t, err)
	snap.Stories = append([]story.Story{{StoryID: "mine"}}, snap.Stories...)
	require.NoError(t, c.Save(snap))
	assert.False(t, c.IsFresh())
	assert.False(t, c.Info().Fresh)

	f := &countingFetch{stories: []story.Story{{StoryID: "theirs"}, {StoryID: "mine"}, {StoryID: "old"}}}
	got, err := c.Get(ctx, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "theirs", got.Stories[0].StoryID)
}

func TestIsFresh_ZeroTimestamp(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Hour)
	require.NoError(t, c.Save(&Snapshot{Source: "src", Stories: []story.Story{{StoryID: "1"}}}))
	assert.False(t, c.IsFresh())
}

func TestLoad_RejectsOtherSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewCache(dir, "a", time.Hour).Save(&Snapshot{Source: "a"}))

	_, err := NewCache(dir, "b", time.Hour).Load()
	require.Error(t, err)
}

func TestInfoAndClear(t *testing.T) {
	c := NewCache(t.TempDir(), "src", time.Hour)

	info := c.Info()
	assert.False(t, info.Exists)
	assert.Equal(t, time.Hour, info.MaxAge)

	require.NoError(t, c.Save(&Snapshot{Source: "src", Stories: []story.Story{{StoryID: "1"}}, LastUpdated: time.Now()}))
	info = c.Info()
	assert.True(t, info.Exists)
	assert.True(t, info.Fresh)
	assert.Positive(t, info.Size)

	require.NoError(t, c.Clear())
	require.NoError(t, c.Clear())
	assert.False(t, c.Info().Exists)
}
