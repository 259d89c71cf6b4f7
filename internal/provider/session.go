package provider

import (
	"strings"
	"sync"
)

// PromptSession tracks recently generated prompts and their subjects so
// consecutive creative prompts do not repeat themselves. Bounded: prompts to
// maxRecent, subjects to 3x that.
type PromptSession struct {
	mu         sync.Mutex
	maxRecent  int
	prompts    []string
	subjects   []string
}

// NewPromptSession creates a session keeping the last maxRecent prompts.
func NewPromptSession(maxRecent int) *PromptSession {
	if maxRecent <= 0 {
		maxRecent = 20
	}
	return &PromptSession{maxRecent: maxRecent}
}

// Record stores a generated prompt and its subjects, trimming history.
func (s *PromptSession) Record(prompt string, subjects []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if len(s.prompts) > s.maxRecent {
		s.prompts = s.prompts[len(s.prompts)-s.maxRecent:]
	}

	s.subjects = append(s.subjects, subjects...)
	if limit := s.maxRecent * 3; len(s.subjects) > limit {
		s.subjects = s.subjects[len(s.subjects)-limit:]
	}
}

// RecentPrompts returns a copy of the tracked prompts, oldest first.
func (s *PromptSession) RecentPrompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// RecentSubjects returns a copy of the tracked subjects.
func (s *PromptSession) RecentSubjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subjects...)
}

// splitSubjectsTrailer separates the "Subjects: a, b" trailer the creative
// prompt template asks the model to append. Returns the prompt without the
// trailer and the lowercased subject list; a missing trailer yields the
// prompt unchanged and no subjects.
func splitSubjectsTrailer(raw string) (string, []string) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	if !strings.HasPrefix(strings.ToLower(last), "subjects:") {
		return strings.TrimSpace(raw), nil
	}

	var subjects []string
	for _, s := range strings.Split(last[len("subjects:"):], ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			subjects = append(subjects, s)
		}
	}

	prompt := strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
	return prompt, subjects
}
