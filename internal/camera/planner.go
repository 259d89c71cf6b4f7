package camera

import (
	"math/rand"
	"time"
)

// Sampling policy for planned paths: subtle-to-moderate zoom over a short
// clip, with the pan spanning most of the available offset range so the
// motion is visible.
var durationChoices = []int{15, 20, 25}

const (
	planFPS     = 30
	zoomEndMin  = 1.06
	zoomEndMax  = 1.18
	panLowSpan  = 0.25 // start drawn from [0, 0.25]
	panHighBase = 0.75 // end drawn from [0.75, 1.0]
)

// Planner draws randomized camera paths. The random source is injected so
// tests can pin the sequence and assert exact values.
type Planner struct {
	rng *rand.Rand
}

// NewPlanner creates a Planner. A nil rng gets a time-seeded source.
func NewPlanner(rng *rand.Rand) *Planner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{rng: rng}
}

// Plan samples one camera path. The zoom always starts at 1.0 (full frame,
// no initial crop loss); start/end pan corners are swapped with probability
// 0.5 to randomize direction.
func (p *Planner) Plan() Path {
	duration := durationChoices[p.rng.Intn(len(durationChoices))]
	zoomEnd := zoomEndMin + p.rng.Float64()*(zoomEndMax-zoomEndMin)

	start := Vec{
		X: p.rng.Float64() * panLowSpan,
		Y: p.rng.Float64() * panLowSpan,
	}
	end := Vec{
		X: panHighBase + p.rng.Float64()*(1-panHighBase),
		Y: panHighBase + p.rng.Float64()*(1-panHighBase),
	}

	if p.rng.Float64() < 0.5 {
		start, end = end, start
	}

	return Path{
		ZoomStart:   1.0,
		ZoomEnd:     zoomEnd,
		PanStart:    start,
		PanEnd:      end,
		DurationSec: duration,
		FPS:         planFPS,
	}
}
