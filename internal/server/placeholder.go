package server

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/frameloop/frameloop/internal/frame"
	"github.com/frameloop/frameloop/internal/storage"
)

const qrSize = 512

// EnsurePlaceholder writes a bootstrap image when the store has none yet, so
// the frame shows a QR code pointing at the control URL instead of a broken
// link until the first generation completes. It does not mark the image
// fresh; the first poll still regenerates.
func EnsurePlaceholder(store *storage.Store, controlURL string, logger *slog.Logger) error {
	if store.HasImage() {
		return nil
	}

	canvas := image.NewRGBA(image.Rect(0, 0, frame.TargetWidth, frame.TargetHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{18, 18, 24, 255}), image.Point{}, draw.Src)

	if controlURL != "" {
		qr, err := qrcode.New(controlURL, qrcode.Medium)
		if err != nil {
			return err
		}
		code := qr.Image(qrSize)
		offset := image.Pt(
			(frame.TargetWidth-qrSize)/2,
			(frame.TargetHeight-qrSize)/2,
		)
		draw.Draw(canvas, code.Bounds().Add(offset), code, code.Bounds().Min, draw.Src)
	}

	if err := store.SaveImage(canvas); err != nil {
		return err
	}
	logger.Info("placeholder image written", slog.String("control_url", controlURL))
	return nil
}
