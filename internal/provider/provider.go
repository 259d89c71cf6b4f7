// Package provider implements the external generation boundary: text-prompt
// creation, image generation, and inspiration-image description, all backed
// by the OpenAI API. Consumers depend on small interfaces so tests can
// substitute fakes.
package provider

import "errors"

// ErrProvider marks failures of the external generation API. Orchestrator
// state stays consistent across these, so the next request retries.
var ErrProvider = errors.New("provider: external generation failed")
