// Package kenburns turns a normalized base frame and a camera path into a
// deterministic crop+resample frame sequence, streamed one frame at a time
// into an encoder sink.
package kenburns

import (
	"context"
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/frameloop/frameloop/internal/camera"
	"github.com/frameloop/frameloop/internal/system"
)

// ErrDegenerateCrop marks a camera state whose crop window collapses to a
// non-positive size. The synthesis attempt is abandoned rather than emitting
// a corrupt frame.
var ErrDegenerateCrop = errors.New("kenburns: crop window is not positive")

// FrameSink consumes frames in output order. The synthesizer reuses the
// frame buffer between calls, so implementations must finish with it before
// returning.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// Window computes the crop rectangle on a w x h base frame for one camera
// state: the window shrinks by the zoom factor and slides by the pan
// fractions of the remaining offset. Both sizes and offsets floor.
func Window(w, h int, st camera.State) (image.Rectangle, error) {
	cropW := int(float64(w) / st.Zoom)
	cropH := int(float64(h) / st.Zoom)
	if cropW <= 0 || cropH <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d at zoom %.4f", ErrDegenerateCrop, cropW, cropH, st.Zoom)
	}

	offX := int(float64(w-cropW) * st.Pan.X)
	offY := int(float64(h-cropH) * st.Pan.Y)
	return image.Rect(offX, offY, offX+cropW, offY+cropH), nil
}

// Render walks the camera path frame by frame: interpolate the camera state,
// crop the base plate, resample the window back up to full resolution, and
// hand the frame to the sink. Memory stays at O(1) frames regardless of
// clip length.
//
// Frame 0 uses t=0 (exactly the start state) and the last frame t=1; a
// single-frame path degenerates to t=0.
func Render(ctx context.Context, base *image.RGBA, path camera.Path, sink FrameSink) error {
	if err := path.Validate(); err != nil {
		return err
	}

	bounds := base.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	out := system.GetFrame(image.Rect(0, 0, w, h))
	defer system.PutFrame(out)

	frames := path.Frames()
	denom := frames - 1
	if denom < 1 {
		denom = 1
	}

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) / float64(denom)
		win, err := Window(w, h, path.At(t))
		if err != nil {
			return err
		}

		xdraw.CatmullRom.Scale(out, out.Bounds(), base, win.Add(bounds.Min), xdraw.Src, nil)

		if err := sink.WriteFrame(out); err != nil {
			return fmt.Errorf("kenburns: frame %d/%d: %w", i, frames, err)
		}
	}

	return nil
}
