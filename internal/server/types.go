// Package server provides the HTTP surface of the frame service.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// NextResponse is the HTTP response for the asset polling endpoint.
type NextResponse struct {
	// Mode is the prompt mode the asset was generated under.
	Mode string `json:"mode"`
	// Prompt is the prompt the current image was generated from.
	Prompt string `json:"prompt"`
	// ImageURL is the server-relative URL of the canonical still image.
	ImageURL string `json:"image_url"`
	// VideoURL is the server-relative URL of the looping video (video requests only).
	VideoURL string `json:"video_url,omitempty"`
	// ImageGeneratedAt is when the current image was produced.
	ImageGeneratedAt time.Time `json:"image_generated_at"`
	// VideoGeneratedAt is when the current video was produced (video requests only).
	VideoGeneratedAt *time.Time `json:"video_generated_at,omitempty"`
}

// PromptResponse is the HTTP response describing the active prompt state.
type PromptResponse struct {
	Mode              string `json:"mode"`
	ManualPrompt      string `json:"manual_prompt"`
	ThemePrompt       string `json:"theme_prompt"`
	CreativePrompt    string `json:"creative_prompt,omitempty"`
	InspirationPrompt string `json:"inspiration_prompt,omitempty"`
	RefreshSeconds    int    `json:"refresh_seconds"`
}

// UpdatePromptRequest is the HTTP request body for changing prompt state.
// Empty fields leave the corresponding setting untouched.
type UpdatePromptRequest struct {
	Mode           string `json:"mode" validate:"omitempty,oneof=manual creative inspiration"`
	ManualPrompt   string `json:"manual_prompt" validate:"omitempty,max=4000"`
	ThemePrompt    string `json:"theme_prompt" validate:"omitempty,max=4000"`
	RefreshSeconds *int   `json:"refresh_seconds" validate:"omitempty,min=60,max=86400"`
}

// InspirationResponse is the HTTP response after an inspiration upload.
type InspirationResponse struct {
	// Prompt is the description derived from the uploaded file.
	Prompt string `json:"prompt"`
	// Mode is the prompt mode after the upload (always inspiration).
	Mode string `json:"mode"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
