// Package camera models the zoom/pan trajectory of a Ken-Burns pass and the
// randomized policy that picks one.
package camera

import (
	"fmt"
)

// Vec is a 2-D pan position expressed as fractions of the maximum pannable
// offset on each axis, in [0, 1].
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Path describes one camera move: zoom and pan endpoints interpolated
// linearly over the clip. Zoom factors below 1.0 would require padding the
// base frame and are rejected.
type Path struct {
	ZoomStart   float64 `yaml:"zoom_start"`
	ZoomEnd     float64 `yaml:"zoom_end"`
	PanStart    Vec     `yaml:"pan_start"`
	PanEnd      Vec     `yaml:"pan_end"`
	DurationSec int     `yaml:"duration_sec"`
	FPS         int     `yaml:"fps"`
}

// State is the interpolated camera position at one instant.
type State struct {
	Zoom float64
	Pan  Vec
}

// Validate checks the Path invariants.
func (p Path) Validate() error {
	if p.ZoomStart < 1.0 || p.ZoomEnd < 1.0 {
		return fmt.Errorf("camera: zoom must be >= 1.0, got start=%.4f end=%.4f", p.ZoomStart, p.ZoomEnd)
	}
	for _, v := range []Vec{p.PanStart, p.PanEnd} {
		if v.X < 0 || v.X > 1 || v.Y < 0 || v.Y > 1 {
			return fmt.Errorf("camera: pan fractions must be in [0,1], got (%.4f, %.4f)", v.X, v.Y)
		}
	}
	if p.DurationSec <= 0 {
		return fmt.Errorf("camera: duration must be positive, got %d", p.DurationSec)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("camera: frame rate must be positive, got %d", p.FPS)
	}
	return nil
}

// Frames returns the total output frame count for the path.
func (p Path) Frames() int {
	return p.DurationSec * p.FPS
}

// At returns the camera state at normalized time t in [0, 1]. Interpolation
// is linear, so t=0 is exactly the start state and t=1 exactly the end state.
func (p Path) At(t float64) State {
	return State{
		Zoom: lerp(p.ZoomStart, p.ZoomEnd, t),
		Pan: Vec{
			X: lerp(p.PanStart.X, p.PanEnd.X, t),
			Y: lerp(p.PanStart.Y, p.PanEnd.Y, t),
		},
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
