package entities

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedo(t *testing.T) {
	c0 := threeSlides()
	h := NewHistory(c0, 10)

	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	c1, err := c0.Reorder(0, 2)
	require.NoError(t, err)
	h.Push(c1)

	c2, err := c1.WithTemplate("bold")
	require.NoError(t, err)
	h.Push(c2)

	got, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, ids(c1), ids(got))
	assert.Equal(t, DefaultTemplate, got.Template)

	got, err = h.Undo()
	require.NoError(t, err)
	assert.Equal(t, ids(c0), ids(got))

	_, err = h.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)

	got, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, ids(c1), ids(got))
	assert.True(t, h.CanRedo())
}

func TestHistory_PushTruncatesRedoBranch(t *testing.T) {
	c0 := threeSlides()
	h := NewHistory(c0, 10)

	c1, _ := c0.Reorder(0, 1)
	c2, _ := c1.Reorder(0, 1)
	h.Push(c1)
	h.Push(c2)

	_, err := h.Undo()
	require.NoError(t, err)

	branch := c1.WithLogo("logo")
	h.Push(branch)

	assert.False(t, h.CanRedo())
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "logo", h.Current().Logo)
}

func TestHistory_Capacity(t *testing.T) {
	h := NewHistory(NewCarousel("0"), 3)
	for i := 1; i <= 5; i++ {
		h.Push(NewCarousel(fmt.Sprint(i)))
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "5", h.Current().Topic)

	h.Undo()
	got, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "3", got.Topic)
	assert.False(t, h.CanUndo())
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	c := threeSlides()
	h := NewHistory(c, 0)

	c.Slides[0].Title = "mutated"
	assert.Equal(t, "One", h.Current().Slides[0].Title)

	cur := h.Current()
	cur.Slides[0].Title = "again"
	assert.Equal(t, "One", h.Current().Slides[0].Title)

	h.Reset(NewCarousel("fresh"))
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, "fresh", h.Current().Topic)
}
