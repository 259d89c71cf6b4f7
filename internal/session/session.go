// Package session holds the mutable prompt/source state of the frame: which
// prompt mode is active, the prompts themselves, and the refresh interval.
// All mutation goes through the defined setters; readers get snapshots.
package session

import (
	"sync"
	"time"
)

// Mode selects where the active prompt comes from.
type Mode string

const (
	ModeManual      Mode = "manual"
	ModeCreative    Mode = "creative"
	ModeInspiration Mode = "inspiration"
)

// MinRefreshInterval is the floor for the refresh interval; anything lower
// would hammer the generation provider.
const MinRefreshInterval = 60 * time.Second

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	Mode              Mode
	ManualPrompt      string
	ThemePrompt       string
	CreativePrompt    string
	InspirationPrompt string
	RefreshInterval   time.Duration
}

// ActivePrompt resolves the prompt to generate from, falling back to the
// manual prompt when the mode's own prompt is not available yet.
func (s Snapshot) ActivePrompt() string {
	switch s.Mode {
	case ModeInspiration:
		if s.InspirationPrompt != "" {
			return s.InspirationPrompt
		}
	case ModeCreative:
		if s.CreativePrompt != "" {
			return s.CreativePrompt
		}
	}
	return s.ManualPrompt
}

// State is the process-wide session. The zero value is not usable; call New.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

// New creates session state with the given defaults.
func New(mode Mode, manualPrompt, themePrompt string, refresh time.Duration) *State {
	if refresh < MinRefreshInterval {
		refresh = MinRefreshInterval
	}
	return &State{snap: Snapshot{
		Mode:            mode,
		ManualPrompt:    manualPrompt,
		ThemePrompt:     themePrompt,
		RefreshInterval: refresh,
	}}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// RefreshInterval returns the configured staleness window.
func (s *State) RefreshInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.RefreshInterval
}

// Update applies prompt/mode/interval changes in one shot. Empty strings
// leave the corresponding prompt untouched; a nil interval leaves it as is.
// Switching to creative mode discards the previous creative prompt so a
// fresh one is generated on the next image.
func (s *State) Update(mode Mode, manualPrompt, themePrompt string, refresh *time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manualPrompt != "" {
		s.snap.ManualPrompt = manualPrompt
	}
	if themePrompt != "" {
		s.snap.ThemePrompt = themePrompt
	}
	if refresh != nil {
		r := *refresh
		if r < MinRefreshInterval {
			r = MinRefreshInterval
		}
		s.snap.RefreshInterval = r
	}
	if mode != "" {
		s.snap.Mode = mode
		if mode == ModeCreative {
			s.snap.CreativePrompt = ""
		}
	}
}

// SetCreativePrompt records the prompt generated for the current image.
func (s *State) SetCreativePrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.CreativePrompt = prompt
}

// SetInspiration stores a prompt derived from an uploaded image and switches
// to inspiration mode.
func (s *State) SetInspiration(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.InspirationPrompt = prompt
	s.snap.Mode = ModeInspiration
}

// ValidMode reports whether m names a known prompt mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeManual, ModeCreative, ModeInspiration:
		return true
	}
	return false
}
