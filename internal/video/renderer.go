package video

import (
	"context"
	"image"
	"os"

	"github.com/frameloop/frameloop/internal/camera"
	"github.com/frameloop/frameloop/internal/kenburns"
)

// Renderer couples the Ken-Burns synthesizer to the ffmpeg sink: one call
// renders a full clip from a base frame to a finished mp4 at outPath.
type Renderer struct {
	EncoderName string
	Quality     int
}

// Render synthesizes the clip for path into outPath. On failure the partial
// output file is removed so no half-written video is ever left behind.
func (r *Renderer) Render(ctx context.Context, base *image.RGBA, path camera.Path, outPath string) error {
	bounds := base.Bounds()

	sink, err := StartFFmpeg(outPath, bounds.Dx(), bounds.Dy(), path.FPS, r.EncoderName, r.Quality)
	if err != nil {
		return err
	}

	if err := kenburns.Render(ctx, base, path, sink); err != nil {
		sink.Abort()
		os.Remove(outPath)
		return err
	}

	if err := sink.Close(); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}
