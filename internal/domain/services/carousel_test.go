package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/test/mocks"
)

type draftRecorder struct {
	drafts []entities.Draft
}

func (r *draftRecorder) Notify(draft entities.Draft) {
	r.drafts = append(r.drafts, draft)
}

func sampleCarousel() entities.Carousel {
	a := entities.NewSlide("First", "one")
	a.ID = "s1"
	b := entities.NewSlide("Second", "two")
	b.ID = "s2"
	return entities.NewCarousel("testing", a, b)
}

func newTestCarouselService(t *testing.T, opts ...CarouselOption) *CarouselService {
	t.Helper()
	return NewCarouselService(sampleCarousel(), 10, zaptest.NewLogger(t), opts...)
}

func TestCarouselService_MutationsPushHistory(t *testing.T) {
	svc := newTestCarouselService(t)

	_, err := svc.AddImage("s1", "https://example.com/a.jpg")
	require.NoError(t, err)
	_, err = svc.AddImage("s1", "https://example.com/b.jpg")
	require.NoError(t, err)
	c, err := svc.SelectImage("s1", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Slides[0].SelectedImageIndex)
	assert.Equal(t, ports.HistoryState{CanUndo: true, CanRedo: false, Size: 4}, svc.History())

	c, err = svc.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Slides[0].SelectedImageIndex)
	assert.True(t, svc.History().CanRedo)

	c, err = svc.Redo()
	require.NoError(t, err)
	assert.Equal(t, 1, c.Slides[0].SelectedImageIndex)
	assert.Equal(t, c.Slides, svc.Snapshot().Slides)
}

func TestCarouselService_MutationAfterUndoDropsRedo(t *testing.T) {
	svc := newTestCarouselService(t)

	_, err := svc.Reorder(0, 1)
	require.NoError(t, err)
	_, err = svc.Undo()
	require.NoError(t, err)

	_, err = svc.SetLogo("logo.png")
	require.NoError(t, err)
	assert.False(t, svc.History().CanRedo)

	_, err = svc.Redo()
	assert.ErrorIs(t, err, entities.ErrNothingToRedo)
}

func TestCarouselService_UndoAtStart(t *testing.T) {
	svc := newTestCarouselService(t)

	c, err := svc.Undo()
	assert.ErrorIs(t, err, entities.ErrNothingToUndo)
	assert.Equal(t, []string{"s1", "s2"}, []string{c.Slides[0].ID, c.Slides[1].ID})
}

func TestCarouselService_RejectedMutationKeepsState(t *testing.T) {
	rec := &draftRecorder{}
	svc := newTestCarouselService(t, WithDraftNotifier(rec))

	_, err := svc.DeleteImage("s1", 0)
	assert.ErrorIs(t, err, entities.ErrImageIndexOutOfRange)

	_, err = svc.RemoveSlide("missing")
	assert.ErrorIs(t, err, entities.ErrSlideNotFound)

	_, err = svc.SetTemplate("nope")
	assert.ErrorIs(t, err, entities.ErrTemplateNotFound)

	assert.Equal(t, 1, svc.History().Size)
	assert.Empty(t, rec.drafts)
}

func TestCarouselService_UpdateContent(t *testing.T) {
	rec := &draftRecorder{}
	svc := newTestCarouselService(t, WithDraftNotifier(rec))

	c, err := svc.UpdateContent("s1", entities.TitleField(), "<b>First</b>")
	require.NoError(t, err)
	assert.Equal(t, "<b>First</b>", c.Slides[0].Title)
	assert.Equal(t, 2, svc.History().Size)
	require.Len(t, rec.drafts, 1)
	assert.Equal(t, "<b>First</b>", rec.drafts[0].Slides[0].Title)

	t.Run("unchanged content is not a history entry", func(t *testing.T) {
		_, err := svc.UpdateContent("s1", entities.TitleField(), "<b>First</b>")
		require.NoError(t, err)
		assert.Equal(t, 2, svc.History().Size)
		assert.Len(t, rec.drafts, 1)
	})

	t.Run("body line out of range", func(t *testing.T) {
		_, err := svc.UpdateContent("s1", entities.ContentLine(4), "x")
		assert.ErrorIs(t, err, entities.ErrContentIndexOutOfRange)
	})
}

func TestCarouselService_Replace(t *testing.T) {
	svc := newTestCarouselService(t)

	dup := sampleCarousel()
	dup.Slides[1].ID = "s1"
	_, err := svc.Replace(dup)
	require.Error(t, err)
	assert.Equal(t, "s2", svc.Snapshot().Slides[1].ID)

	fresh := entities.NewCarousel("other", entities.NewSlide("Only"))
	c, err := svc.Replace(fresh)
	require.NoError(t, err)
	assert.Equal(t, "other", c.Topic)
	assert.Equal(t, 1, c.SlideCount())
	assert.True(t, svc.History().CanUndo)
}

func TestCarouselService_SlidesAndPrompts(t *testing.T) {
	svc := newTestCarouselService(t)

	added := entities.NewSlide("Third")
	c, err := svc.AddSlide(2, added)
	require.NoError(t, err)
	assert.Equal(t, 3, c.SlideCount())

	c, err = svc.SetImagePrompt(added.ID, "a calm lake")
	require.NoError(t, err)
	assert.Equal(t, "a calm lake", c.Slides[2].ImagePrompt)

	gen := entities.NewGeneratedSlide("Gen", []string{"x"}, "locked prompt")
	_, err = svc.AddSlide(0, gen)
	require.NoError(t, err)
	_, err = svc.SetImagePrompt(gen.ID, "changed")
	assert.ErrorIs(t, err, entities.ErrImagePromptLocked)

	c, err = svc.RemoveSlide("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.SlideCount())
}

func TestCarouselService_Announces(t *testing.T) {
	clock := mocks.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	pub := &mocks.Publisher{}
	rec := &draftRecorder{}
	svc := newTestCarouselService(t, WithPublisher(pub), WithDraftNotifier(rec), WithClock(clock))

	_, err := svc.SetTemplate("bold")
	require.NoError(t, err)
	_, err = svc.Undo()
	require.NoError(t, err)

	events := pub.OfType(ports.EventTypeCarouselUpdated)
	require.Len(t, events, 2)
	assert.Equal(t, clock.Now(), events[0].Timestamp)

	require.Len(t, rec.drafts, 2)
	assert.Equal(t, "bold", rec.drafts[0].Template)
	assert.Equal(t, entities.DefaultTemplate, rec.drafts[1].Template)
	assert.Equal(t, clock.Now(), rec.drafts[1].SavedAt)
}
