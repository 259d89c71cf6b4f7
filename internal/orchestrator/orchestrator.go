// Package orchestrator decides when the still image and the looping video
// must be regenerated. It owns the freshness timestamps, serializes
// regeneration, and guarantees a served video is never older than the image
// it was derived from.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/frameloop/frameloop/internal/camera"
	"github.com/frameloop/frameloop/internal/frame"
	"github.com/frameloop/frameloop/internal/kenburns"
	"github.com/frameloop/frameloop/internal/session"
	"github.com/frameloop/frameloop/internal/storage"
	"github.com/frameloop/frameloop/internal/system"
)

// AssetKind selects what a request needs: the still image alone, or the
// video (which implies a fresh image).
type AssetKind string

const (
	KindImage AssetKind = "image"
	KindVideo AssetKind = "video"
)

// ParseKind validates a client-supplied kind string, defaulting to image.
func ParseKind(s string) (AssetKind, error) {
	switch s {
	case "", string(KindImage):
		return KindImage, nil
	case string(KindVideo):
		return KindVideo, nil
	}
	return "", fmt.Errorf("orchestrator: unknown asset kind %q", s)
}

// ImageGenerator is the external image-generation provider boundary.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// CreativePrompter supplies a fresh themed prompt for creative mode.
type CreativePrompter interface {
	CreativePrompt(ctx context.Context, theme string, quirkiness int) (string, error)
}

// VideoRenderer turns a base frame and a camera path into a finished video
// file at outPath.
type VideoRenderer interface {
	Render(ctx context.Context, base *image.RGBA, path camera.Path, outPath string) error
}

// Result describes the assets currently servable after a request.
type Result struct {
	Mode             session.Mode
	Prompt           string
	ImageURL         string
	VideoURL         string // empty unless video was requested
	ImageGeneratedAt time.Time
	VideoGeneratedAt time.Time // zero unless video was requested
}

// Orchestrator is the process-wide freshness state machine. The mutex makes
// the check-then-regenerate sequence atomic; the singleflight group collapses
// concurrent requests for the same kind onto one in-flight regeneration.
type Orchestrator struct {
	sess     *session.State
	store    *storage.Store
	images   ImageGenerator
	prompts  CreativePrompter
	renderer VideoRenderer
	planner  *camera.Planner
	logger   *slog.Logger

	quirkiness int
	now        func() time.Time

	mu          sync.Mutex
	group       singleflight.Group
	lastImageAt time.Time // zero = never generated / invalidated
	lastVideoAt time.Time
}

// Options carries the optional knobs of New.
type Options struct {
	Quirkiness int
	Now        func() time.Time // test hook; defaults to time.Now
	Logger     *slog.Logger
}

// New wires an orchestrator. planner may be nil for a time-seeded one.
func New(sess *session.State, store *storage.Store, images ImageGenerator,
	prompts CreativePrompter, renderer VideoRenderer, planner *camera.Planner, opts Options) *Orchestrator {

	if planner == nil {
		planner = camera.NewPlanner(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Quirkiness < 0 || opts.Quirkiness > 3 {
		opts.Quirkiness = 1
	}

	return &Orchestrator{
		sess:       sess,
		store:      store,
		images:     images,
		prompts:    prompts,
		renderer:   renderer,
		planner:    planner,
		logger:     opts.Logger,
		quirkiness: opts.Quirkiness,
		now:        opts.Now,
	}
}

// RequestAsset is the single entry point of the request path. Late-arriving
// concurrent callers of the same kind share the in-flight result instead of
// triggering duplicate external calls.
func (o *Orchestrator) RequestAsset(ctx context.Context, kind AssetKind) (*Result, error) {
	v, err, _ := o.group.Do(string(kind), func() (interface{}, error) {
		return o.request(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// InvalidateSource forces both assets stale. Called whenever the active
// prompt or source changes.
func (o *Orchestrator) InvalidateSource() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastImageAt = time.Time{}
	o.lastVideoAt = time.Time{}
	o.logger.Info("source invalidated, assets forced stale")
}

// Freshness returns the current timestamps (zero when unset). Read-only;
// used by status reporting.
func (o *Orchestrator) Freshness() (imageAt, videoAt time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastImageAt, o.lastVideoAt
}

func (o *Orchestrator) request(ctx context.Context, kind AssetKind) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.imageStaleLocked(o.now()) {
		if err := o.regenerateImageLocked(ctx); err != nil {
			return nil, err
		}
	}

	// Video staleness is recomputed after any image regeneration, so a
	// video is never built from (or served beside) an image newer than it.
	if kind == KindVideo && o.videoStaleLocked() {
		if err := o.regenerateVideoLocked(ctx); err != nil {
			return nil, err
		}
	}

	snap := o.sess.Snapshot()
	res := &Result{
		Mode:             snap.Mode,
		Prompt:           snap.ActivePrompt(),
		ImageURL:         o.store.ImageURL(),
		ImageGeneratedAt: o.lastImageAt,
	}
	if kind == KindVideo {
		res.VideoURL = o.store.VideoURL()
		res.VideoGeneratedAt = o.lastVideoAt
	}
	return res, nil
}

func (o *Orchestrator) imageStaleLocked(now time.Time) bool {
	if o.lastImageAt.IsZero() {
		return true
	}
	return now.Sub(o.lastImageAt) > o.sess.RefreshInterval()
}

func (o *Orchestrator) videoStaleLocked() bool {
	if o.lastVideoAt.IsZero() || o.lastImageAt.IsZero() {
		return true
	}
	return o.lastVideoAt.Before(o.lastImageAt)
}

// regenerateImageLocked runs the full image pipeline: resolve the active
// prompt (generating a creative one first if needed), call the provider,
// validate and normalize the result, and atomically replace the canonical
// file. Timestamps are only touched after the durable write, so any failure
// leaves the state retryable.
func (o *Orchestrator) regenerateImageLocked(ctx context.Context) error {
	snap := o.sess.Snapshot()

	if snap.Mode == session.ModeCreative {
		prompt, err := o.prompts.CreativePrompt(ctx, snap.ThemePrompt, o.quirkiness)
		if err != nil {
			return err
		}
		o.sess.SetCreativePrompt(prompt)
		snap.CreativePrompt = prompt
	}

	prompt := snap.ActivePrompt()
	o.logger.Info("regenerating image", "mode", string(snap.Mode), "prompt", prompt)

	raw, err := o.images.GenerateImage(ctx, prompt)
	if err != nil {
		return err
	}

	src, err := frame.Decode(raw)
	if err != nil {
		return err
	}
	normalized, err := frame.Normalize(src)
	if err != nil {
		return err
	}

	if err := o.store.SaveImage(normalized); err != nil {
		return err
	}

	now := o.now()
	o.lastImageAt = now
	// Any image write invalidates the video, even if the content happens to
	// be similar: the pair must never mismatch.
	o.lastVideoAt = time.Time{}
	o.logger.Info("image regenerated", "at", now)
	return nil
}

// regenerateVideoLocked synthesizes the clip from the just-confirmed-fresh
// canonical image into a staged file, then promotes it. A degenerate camera
// path is re-planned once before giving up.
func (o *Orchestrator) regenerateVideoLocked(ctx context.Context) error {
	base, err := o.store.LoadImage()
	if err != nil {
		return err
	}

	memStats := system.Memory()
	o.logger.Info("regenerating video",
		"available_mb", memStats.AvailableMB, "mem_used_pct", memStats.UsedPercent)

	staged := o.store.StageVideoPath()
	path := o.planner.Plan()

	err = o.renderer.Render(ctx, base, path, staged)
	if errors.Is(err, kenburns.ErrDegenerateCrop) {
		o.logger.Warn("camera path degenerate, re-planning", "error", err)
		o.store.DiscardVideo(staged)
		path = o.planner.Plan()
		err = o.renderer.Render(ctx, base, path, staged)
	}
	if err != nil {
		o.store.DiscardVideo(staged)
		return err
	}

	if err := o.store.PromoteVideo(staged); err != nil {
		o.store.DiscardVideo(staged)
		return err
	}

	if err := camera.WritePath(o.store.CameraPathFile(), path); err != nil {
		// The video itself is fine; the sidecar is informational.
		o.logger.Warn("could not persist camera path", "error", err)
	}

	o.lastVideoAt = o.now()
	o.logger.Info("video regenerated", "at", o.lastVideoAt,
		"duration_sec", path.DurationSec, "zoom_end", path.ZoomEnd)
	return nil
}
