package draftstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

func sampleDraft() entities.Draft {
	return entities.Draft{
		Topic:    "Go tips",
		Template: "bold",
		Logo:     "data:image/png;base64,AAAA",
		Slides: []entities.Slide{
			{ID: "a", Title: "<b>Hook</b>", Content: []string{"one", "two"}, ImageURLs: []string{"https://img/1"}, SelectedImageIndex: 0, Generated: true, ImagePrompt: "sunrise"},
		},
		SavedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadWithoutDraft(t *testing.T) {
	store, err := Open(context.Background(), ":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	draft, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "drafts.db")

	store, err := Open(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleDraft()))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	draft, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, sampleDraft(), *draft)
}

func TestSaveReplacesDraft(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	first := sampleDraft()
	require.NoError(t, store.Save(ctx, first))

	second := sampleDraft()
	second.Topic = "Rust tips"
	second.Slides = nil
	require.NoError(t, store.Save(ctx, second))

	draft, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rust tips", draft.Topic)
	assert.Empty(t, draft.Slides)

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`).Scan(&rows))
	assert.Equal(t, 1, rows)

	require.NoError(t, store.Clear(ctx))
	draft, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestSaveStampsTime(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	draft := sampleDraft()
	draft.SavedAt = time.Time{}
	require.NoError(t, store.Save(ctx, draft))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.SavedAt.IsZero())
}
