// Package frame normalizes arbitrary source images into the fixed-resolution
// display frame used for both the still image and the animation base plate.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Target resolution of every served frame. The frame hardware is a fixed
// 16:9 4K panel, so there is exactly one output geometry.
const (
	TargetWidth  = 3840
	TargetHeight = 2160
)

// ErrInvalidImage marks sources that cannot be decoded or have no pixels.
var ErrInvalidImage = errors.New("frame: invalid source image")

// Decode validates raw bytes from the generation provider and returns the
// decoded image. Anything undecodable or zero-sized is rejected with
// ErrInvalidImage so the caller never treats garbage as a SourceImage.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return img, nil
}

// coverWindow computes the cover-fit geometry: the scale factor that makes
// the source fill the target on both axes, the scaled dimensions, and the
// centered crop origin inside the scaled image. Crop offsets floor so the
// output is never smaller than the target.
func coverWindow(srcW, srcH int) (scale float64, scaledW, scaledH, left, top int) {
	sx := float64(TargetWidth) / float64(srcW)
	sy := float64(TargetHeight) / float64(srcH)
	scale = sx
	if sy > sx {
		scale = sy
	}

	scaledW = int(float64(srcW) * scale)
	scaledH = int(float64(srcH) * scale)

	// Truncation of the non-limiting axis can round below the target by a
	// fraction of a pixel. Clamp so the crop always fits.
	if scaledW < TargetWidth {
		scaledW = TargetWidth
	}
	if scaledH < TargetHeight {
		scaledH = TargetHeight
	}

	left = (scaledW - TargetWidth) / 2
	top = (scaledH - TargetHeight) / 2
	return scale, scaledW, scaledH, left, top
}

// Normalize cover-scales the source so it fully covers the target rectangle,
// then center-crops to exactly TargetWidth x TargetHeight. The aspect ratio
// is never distorted: the crop absorbs any excess. The source is not
// mutated.
func Normalize(src image.Image) (*image.RGBA, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}

	_, scaledW, scaledH, left, top := coverWindow(b.Dx(), b.Dy())

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, xdraw.Src, nil)

	dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	draw.Draw(dst, dst.Bounds(), scaled, image.Pt(left, top), draw.Src)
	return dst, nil
}

// ToRGBA returns img as an *image.RGBA with a zero-origin, tightly packed
// buffer, copying only when the underlying representation differs.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok &&
		rgba.Stride == b.Dx()*4 && b.Min.X == 0 && b.Min.Y == 0 {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
