package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frameloop/frameloop/internal/camera"
	"github.com/frameloop/frameloop/internal/kenburns"
	"github.com/frameloop/frameloop/internal/session"
	"github.com/frameloop/frameloop/internal/storage"
)

type fakeImages struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 9))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *fakeImages) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePrompter struct {
	calls int
}

func (f *fakePrompter) CreativePrompt(ctx context.Context, theme string, quirkiness int) (string, error) {
	f.calls++
	return fmt.Sprintf("creative scene %d for %s", f.calls, theme), nil
}

type fakeRenderer struct {
	calls    int
	failures []error // consumed one per call
}

func (f *fakeRenderer) Render(ctx context.Context, base *image.RGBA, path camera.Path, outPath string) error {
	f.calls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		if err != nil {
			return err
		}
	}
	return os.WriteFile(outPath, []byte("mp4"), 0644)
}

type fixture struct {
	orch     *Orchestrator
	sess     *session.State
	store    *storage.Store
	images   *fakeImages
	prompter *fakePrompter
	renderer *fakeRenderer
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, mode session.Mode) *fixture {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		sess:     session.New(mode, "manual prompt", "test theme", 300*time.Second),
		store:    store,
		images:   &fakeImages{},
		prompter: &fakePrompter{},
		renderer: &fakeRenderer{},
		clock:    &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.orch = New(f.sess, store, f.images, f.prompter, f.renderer,
		camera.NewPlanner(rand.New(rand.NewSource(1))),
		Options{Now: f.clock.Now})
	return f
}

func TestImageRequestIsIdempotentWithinInterval(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	first, err := f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
	assert.Equal(t, 1, f.images.callCount())
	assert.Equal(t, "manual prompt", first.Prompt)
	assert.Equal(t, "/images/current.png", first.ImageURL)
	assert.Empty(t, first.VideoURL)

	second, err := f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
	assert.Equal(t, 1, f.images.callCount(), "second call within interval must not regenerate")
	assert.Equal(t, first.ImageGeneratedAt, second.ImageGeneratedAt)
}

func TestImageRegeneratesAfterInterval(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	_, err := f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)

	// refresh_interval=300s, last_image_at=now-400s -> stale.
	f.clock.Advance(400 * time.Second)

	_, err = f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
	assert.Equal(t, 2, f.images.callCount())
}

func TestVideoFollowsImage(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	res, err := f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 1, f.images.callCount())
	assert.Equal(t, 1, f.renderer.calls)
	assert.Equal(t, "/videos/current.mp4", res.VideoURL)
	assert.False(t, res.VideoGeneratedAt.Before(res.ImageGeneratedAt),
		"video must never predate the image it was derived from")

	// Fresh pair: nothing regenerates.
	_, err = f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 1, f.images.callCount())
	assert.Equal(t, 1, f.renderer.calls)
}

func TestImageRegenerationInvalidatesVideo(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	_, err := f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)

	f.clock.Advance(400 * time.Second)

	// The image is stale; requesting the video must regenerate both, in
	// order.
	res, err := f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 2, f.images.callCount())
	assert.Equal(t, 2, f.renderer.calls)
	assert.False(t, res.VideoGeneratedAt.Before(res.ImageGeneratedAt))
}

func TestInvalidateSourceForcesBothStale(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	_, err := f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)

	f.orch.InvalidateSource()
	imageAt, videoAt := f.orch.Freshness()
	assert.True(t, imageAt.IsZero())
	assert.True(t, videoAt.IsZero())

	_, err = f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 2, f.images.callCount())
	assert.Equal(t, 2, f.renderer.calls)
}

func TestGeneratorFailureLeavesStateRetryable(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	f.images.err = errors.New("api down")
	_, err := f.orch.RequestAsset(context.Background(), KindImage)
	require.Error(t, err)

	imageAt, _ := f.orch.Freshness()
	assert.True(t, imageAt.IsZero(), "failed regeneration must not set the timestamp")

	f.images.err = nil
	_, err = f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
}

func TestDegenerateCropTriggersReplan(t *testing.T) {
	f := newFixture(t, session.ModeManual)
	f.renderer.failures = []error{kenburns.ErrDegenerateCrop}

	_, err := f.orch.RequestAsset(context.Background(), KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 2, f.renderer.calls, "degenerate path must be re-planned once")
}

func TestVideoFailurePreservesImage(t *testing.T) {
	f := newFixture(t, session.ModeManual)
	f.renderer.failures = []error{errors.New("encoder exploded")}

	_, err := f.orch.RequestAsset(context.Background(), KindVideo)
	require.Error(t, err)

	// The image survives and stays servable.
	imageAt, videoAt := f.orch.Freshness()
	assert.False(t, imageAt.IsZero())
	assert.True(t, videoAt.IsZero())
	assert.True(t, f.store.HasImage())

	res, err := f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
	assert.Equal(t, 1, f.images.callCount())
	assert.NotEmpty(t, res.ImageURL)
}

func TestConcurrentRequestsShareOneRegeneration(t *testing.T) {
	f := newFixture(t, session.ModeManual)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orch.RequestAsset(context.Background(), KindImage)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.images.callCount())
}

func TestCreativeModeGeneratesPromptPerImage(t *testing.T) {
	f := newFixture(t, session.ModeCreative)

	res, err := f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
	assert.Equal(t, 1, f.prompter.calls)
	assert.Contains(t, res.Prompt, "creative scene 1")

	f.clock.Advance(400 * time.Second)
	res, err = f.orch.RequestAsset(context.Background(), KindImage)
	require.NoError(t, err)
	assert.Equal(t, 2, f.prompter.calls)
	assert.Contains(t, res.Prompt, "creative scene 2")
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindImage, kind)

	kind, err = ParseKind("video")
	require.NoError(t, err)
	assert.Equal(t, KindVideo, kind)

	_, err = ParseKind("gif")
	assert.Error(t, err)
}
