package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
	"github.com/fredcamaral/carousel/internal/test/mocks"
)

type recordedChange struct {
	field entities.ContentField
	html  string
}

type editorFixture struct {
	editor  *InlineEditor
	surface *mocks.Surface
	clock   *mocks.ManualClock
	changes []recordedChange
}

func newEditorFixture(t *testing.T, html string) *editorFixture {
	t.Helper()
	f := &editorFixture{
		surface: mocks.NewSurface(html),
		clock:   mocks.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	f.surface.Box = ports.Rect{Left: 100, Top: 200, Width: 80, Height: 20}
	f.editor = NewInlineEditor(f.surface, entities.TitleField(), func(field entities.ContentField, html string) {
		f.changes = append(f.changes, recordedChange{field: field, html: html})
	}, f.clock, zaptest.NewLogger(t), EditorOptions{ToolbarHeight: 50, HideGrace: 200 * time.Millisecond})
	return f
}

func TestInlineEditor_BlurWithoutChangeStillPropagates(t *testing.T) {
	f := newEditorFixture(t, "Hello <b>world</b>")

	f.editor.OnFocus()
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 2, End: 2}))
	f.editor.OnBlur()

	require.Len(t, f.changes, 1)
	assert.Equal(t, entities.TitleField(), f.changes[0].field)
	assert.Equal(t, "Hello <b>world</b>", f.changes[0].html)

	f.editor.OnFocus()
	f.editor.OnBlur()
	assert.Len(t, f.changes, 2)
	assert.Equal(t, f.changes[0].html, f.changes[1].html)
}

func TestInlineEditor_States(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	assert.Equal(t, StateIdle, f.editor.State())

	f.editor.OnFocus()
	assert.Equal(t, StateSelecting, f.editor.State())
	assert.True(t, f.surface.Focused())

	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))
	assert.Equal(t, StateToolbarOpen, f.editor.State())
	assert.True(t, f.editor.Toolbar().Open)

	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 3, End: 3}))
	assert.Equal(t, StateSelecting, f.editor.State())
	assert.False(t, f.editor.Toolbar().Open)

	f.editor.OnBlur()
	assert.Equal(t, StateIdle, f.editor.State())
}

func TestInlineEditor_ToolbarPlacement(t *testing.T) {
	tests := []struct {
		name      string
		box       ports.Rect
		placement ports.Placement
		anchor    ports.Point
	}{
		{
			name:      "room above the selection",
			box:       ports.Rect{Left: 100, Top: 200, Width: 80, Height: 20},
			placement: ports.PlaceAbove,
			anchor:    ports.Point{X: 140, Y: 150},
		},
		{
			name:      "too close to the viewport top",
			box:       ports.Rect{Left: 0, Top: 30, Width: 60, Height: 20},
			placement: ports.PlaceBelow,
			anchor:    ports.Point{X: 30, Y: 50},
		},
		{
			name:      "exactly the toolbar height",
			box:       ports.Rect{Left: 10, Top: 50, Width: 20, Height: 10},
			placement: ports.PlaceAbove,
			anchor:    ports.Point{X: 20, Y: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEditorFixture(t, "Hello world")
			f.surface.Box = tt.box

			require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))

			tb := f.editor.Toolbar()
			assert.True(t, tb.Open)
			assert.Equal(t, tt.placement, tb.Placement)
			assert.InDelta(t, tt.anchor.X, tb.Anchor.X, 0.001)
			assert.InDelta(t, tt.anchor.Y, tb.Anchor.Y, 0.001)
		})
	}
}

func TestInlineEditor_SelectionOutOfRange(t *testing.T) {
	f := newEditorFixture(t, "Hi")

	err := f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 10})
	require.Error(t, err)
	assert.True(t, entities.IsValidationError(err))
	assert.False(t, f.editor.Toolbar().Open)
}

func TestInlineEditor_HideAfterGrace(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	f.editor.OnFocus()
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))

	f.editor.OnBlur()
	assert.True(t, f.editor.Toolbar().Open, "toolbar stays visible during the grace period")

	f.clock.Advance(199 * time.Millisecond)
	assert.True(t, f.editor.Toolbar().Open)

	f.clock.Advance(time.Millisecond)
	assert.False(t, f.editor.Toolbar().Open)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestInlineEditor_CommandCancelsPendingHide(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	f.editor.OnFocus()
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))

	f.editor.OnBlur()
	f.clock.Advance(100 * time.Millisecond)
	require.NoError(t, f.editor.ApplyCommand(richtext.Bold, ""))

	f.clock.Advance(time.Second)
	assert.True(t, f.editor.Toolbar().Open)
	assert.Equal(t, StateToolbarOpen, f.editor.State())
	assert.True(t, f.surface.Focused())
	assert.Equal(t, "<b>Hello</b> world", f.editor.Content())
}

func TestInlineEditor_SelectionCancelsPendingHide(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))

	f.editor.OnBlur()
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 6, End: 11}))
	f.clock.Advance(time.Second)

	assert.True(t, f.editor.Toolbar().Open)
}

func TestInlineEditor_StructuralToggleReportsActive(t *testing.T) {
	f := newEditorFixture(t, "<b>Hello</b> world")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))
	assert.True(t, f.editor.ActiveStyles()[richtext.Bold])

	require.NoError(t, f.editor.ApplyCommand(richtext.Bold, ""))
	assert.False(t, f.editor.ActiveStyles()[richtext.Bold])

	require.NoError(t, f.editor.ApplyCommand(richtext.Bold, ""))
	assert.True(t, f.editor.ActiveStyles()[richtext.Bold])
}

func TestInlineEditor_CustomStyleToggle(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 6, End: 11}))
	before := f.editor.Content()

	require.NoError(t, f.editor.ApplyCommand(richtext.Shadow, ""))
	assert.Contains(t, f.editor.Content(), "text-shadow")
	assert.True(t, f.editor.ActiveStyles()[richtext.Shadow])
	assert.False(t, f.editor.ActiveStyles()[richtext.Outline])

	require.NoError(t, f.editor.ApplyCommand(richtext.Shadow, ""))
	assert.Equal(t, before, f.editor.Content())
	assert.False(t, f.editor.ActiveStyles()[richtext.Shadow])
}

func TestInlineEditor_CustomStyleOnCollapsedSelectionIsNoop(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 3, End: 3}))

	require.NoError(t, f.editor.ApplyCommand(richtext.Outline, ""))
	assert.Equal(t, "Hello world", f.editor.Content())
}

func TestInlineEditor_SpanFailureIsAbsorbed(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	f.surface.WrapErr = errors.New("range crosses element boundary")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))

	err := f.editor.ApplyCommand(richtext.Shadow, "")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", f.editor.Content())
	assert.True(t, f.editor.Toolbar().Open)
}

func TestInlineEditor_CommandErrors(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))

	err := f.editor.ApplyCommand(richtext.Command("insertImage"), "")
	require.Error(t, err)
	assert.True(t, entities.IsValidationError(err))

	err = f.editor.ApplyCommand(richtext.ForeColor, "not a colour;")
	require.Error(t, err)
	assert.True(t, entities.IsValidationError(err))
	assert.Equal(t, "Hello world", f.editor.Content())
}

func TestInlineEditor_Render(t *testing.T) {
	f := newEditorFixture(t, "Hello <b>world</b>")

	replaced, err := f.editor.Render("Hello <b>world</b>")
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, 0, f.surface.Replaced)

	replaced, err = f.editor.Render("Goodbye")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "Goodbye", f.editor.Content())
	assert.Equal(t, 1, f.surface.Replaced)
}

func TestInlineEditor_CloseStopsHideTimer(t *testing.T) {
	f := newEditorFixture(t, "Hello world")
	require.NoError(t, f.editor.OnSelectionChange(richtext.Selection{Start: 0, End: 5}))
	f.editor.OnBlur()
	require.Equal(t, 1, f.clock.Pending())

	f.editor.Close()
	assert.Equal(t, 0, f.clock.Pending())
}
