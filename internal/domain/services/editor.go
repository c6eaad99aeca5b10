package services

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// EditorState is the inline editor's interaction state
type EditorState string

const (
	StateIdle        EditorState = "idle"
	StateSelecting   EditorState = "selecting"
	StateToolbarOpen EditorState = "toolbarOpen"
)

// ContentChangeFunc receives a field's serialised content when the region loses focus
type ContentChangeFunc func(field entities.ContentField, html string)

// EditorOptions tunes toolbar placement and hiding
type EditorOptions struct {
	// ToolbarHeight is the space the toolbar needs above a selection
	ToolbarHeight float64

	// HideGrace delays hiding the toolbar after blur
	HideGrace time.Duration
}

// EditorOptionsFromConfig reads the editor section of the configuration
func EditorOptionsFromConfig(cfg entities.EditorConfig) EditorOptions {
	return EditorOptions{
		ToolbarHeight: cfg.GetToolbarHeight(),
		HideGrace:     cfg.GetHideGrace(),
	}
}

// InlineEditor is the state machine behind one editable region: it tracks
// the selection, places the floating toolbar, applies formatting commands and
// hands content back to the owner on blur.
type InlineEditor struct {
	mu sync.Mutex

	surface  ports.EditableSurface
	field    entities.ContentField
	onChange ContentChangeFunc
	clock    ports.TimeProvider
	logger   *zap.Logger
	opts     EditorOptions

	state     EditorState
	toolbar   ports.ToolbarState
	active    map[richtext.Command]bool
	hideTimer ports.Timer
	hideGen   uint64
}

// NewInlineEditor creates an editor over surface for one slide field
func NewInlineEditor(
	surface ports.EditableSurface,
	field entities.ContentField,
	onChange ContentChangeFunc,
	clock ports.TimeProvider,
	logger *zap.Logger,
	opts EditorOptions,
) *InlineEditor {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ToolbarHeight <= 0 {
		opts.ToolbarHeight = entities.EditorConfig{}.GetToolbarHeight()
	}
	if opts.HideGrace <= 0 {
		opts.HideGrace = entities.EditorConfig{}.GetHideGrace()
	}

	e := &InlineEditor{
		surface:  surface,
		field:    field,
		onChange: onChange,
		clock:    clock,
		logger:   logger.Named("editor").With(zap.Stringer("field", field)),
		opts:     opts,
		state:    StateIdle,
	}
	e.active = e.queryActive()
	return e
}

// Render displays html unless it matches what is already shown. It reports
// whether the surface content was replaced.
func (e *InlineEditor) Render(html string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	incoming, err := richtext.Parse(html)
	if err != nil {
		return false, err
	}
	if incoming.HTML() == e.surface.Content() {
		return false, nil
	}
	if err := e.surface.Replace(incoming.HTML()); err != nil {
		return false, fmt.Errorf("replacing %s content: %w", e.field, err)
	}
	e.active = e.queryActive()
	return true, nil
}

// OnFocus marks the region as being edited
func (e *InlineEditor) OnFocus() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.surface.Focus()
	if e.state == StateIdle {
		e.state = StateSelecting
	}
}

// OnSelectionChange records the selection, opens or closes the toolbar and
// recomputes the active styles
func (e *InlineEditor) OnSelectionChange(sel richtext.Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.surface.Select(sel); err != nil {
		return entities.NewValidationError("selection", err.Error())
	}

	if sel.Collapsed() {
		e.toolbar = ports.ToolbarState{}
		e.state = StateSelecting
	} else {
		e.cancelHide()
		e.openToolbar()
	}

	e.active = e.queryActive()
	return nil
}

// ApplyCommand runs a formatting command on the current selection. Span
// toggling failures are logged and leave the content unchanged.
func (e *InlineEditor) ApplyCommand(cmd richtext.Command, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !cmd.Known() {
		return entities.NewValidationError("command", fmt.Sprintf("unknown command %q", cmd))
	}

	e.cancelHide()

	if style, ok := cmd.Style(); ok {
		e.toggleStyle(cmd, style)
	} else if err := e.surface.Exec(cmd, value); err != nil {
		if errors.Is(err, richtext.ErrInvalidValue) {
			return entities.NewValidationError("value", err.Error())
		}
		e.logger.Warn("Formatting command abandoned",
			zap.String("command", string(cmd)),
			zap.Error(err))
	}

	e.surface.Focus()
	if e.toolbar.Open || e.state == StateToolbarOpen {
		e.openToolbar()
	}
	e.active = e.queryActive()
	return nil
}

func (e *InlineEditor) toggleStyle(cmd richtext.Command, style richtext.Style) {
	if e.surface.Selection().Collapsed() {
		return
	}

	var err error
	if e.surface.HasAncestorStyle(style) {
		err = e.surface.UnwrapAncestorStyle(style)
	} else {
		err = e.surface.Wrap(style)
	}
	if err != nil {
		e.logger.Warn("Style span toggle abandoned",
			zap.String("command", string(cmd)),
			zap.Error(err))
	}
}

// OnBlur hands the current content to the owner and hides the toolbar after
// the grace delay
func (e *InlineEditor) OnBlur() {
	e.mu.Lock()
	html := e.surface.Content()
	field := e.field
	e.state = StateIdle
	e.cancelHide()
	gen := e.hideGen
	e.hideTimer = e.clock.AfterFunc(e.opts.HideGrace, func() { e.hideToolbar(gen) })
	e.mu.Unlock()

	if e.onChange != nil {
		e.onChange(field, html)
	}
}

func (e *InlineEditor) hideToolbar(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.hideGen {
		// cancelled after the timer fired
		return
	}
	e.hideTimer = nil
	e.toolbar = ports.ToolbarState{}
	if e.state == StateToolbarOpen {
		e.state = StateIdle
	}
}

// Close cancels a pending hide
func (e *InlineEditor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelHide()
}

// State returns the interaction state
func (e *InlineEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Toolbar returns the floating toolbar state
func (e *InlineEditor) Toolbar() ports.ToolbarState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toolbar
}

// ActiveStyles returns which togglable kinds are in effect at the selection
func (e *InlineEditor) ActiveStyles() map[richtext.Command]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.active)
}

// Content returns the serialised region content
func (e *InlineEditor) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.Content()
}

// openToolbar anchors the toolbar above the selection, or below it when the
// selection is closer than ToolbarHeight to the viewport top
func (e *InlineEditor) openToolbar() {
	box := e.surface.BoundingBox()
	if box.Empty() && e.surface.Selection().Collapsed() {
		e.toolbar = ports.ToolbarState{}
		return
	}

	tb := ports.ToolbarState{Open: true, Placement: ports.PlaceAbove}
	if box.Top < e.opts.ToolbarHeight {
		tb.Placement = ports.PlaceBelow
		tb.Anchor = ports.Point{X: box.CenterX(), Y: box.Bottom()}
	} else {
		tb.Anchor = ports.Point{X: box.CenterX(), Y: box.Top - e.opts.ToolbarHeight}
	}

	e.toolbar = tb
	e.state = StateToolbarOpen
}

func (e *InlineEditor) cancelHide() {
	e.hideGen++
	if e.hideTimer != nil {
		e.hideTimer.Stop()
		e.hideTimer = nil
	}
}

func (e *InlineEditor) queryActive() map[richtext.Command]bool {
	active := make(map[richtext.Command]bool, len(richtext.Togglable()))
	for _, cmd := range richtext.Togglable() {
		active[cmd] = e.surface.QueryActive(cmd)
	}
	return active
}
