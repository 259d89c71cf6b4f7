package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/frameloop/frameloop/internal/inspiration"
	"github.com/frameloop/frameloop/internal/orchestrator"
	"github.com/frameloop/frameloop/internal/provider"
	"github.com/frameloop/frameloop/internal/session"
)

// maxUploadBytes caps inspiration uploads; a multi-page PDF render already
// costs memory downstream.
const maxUploadBytes = 25 << 20

// AssetService is what the handlers need from the orchestrator.
type AssetService interface {
	RequestAsset(ctx context.Context, kind orchestrator.AssetKind) (*orchestrator.Result, error)
	InvalidateSource()
}

// Describer turns an uploaded image into prompt text.
type Describer interface {
	DescribeImage(ctx context.Context, dataURL string) (string, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   AssetService
	sess      *session.State
	describer Describer
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service AssetService, sess *session.State, describer Describer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		sess:      sess,
		describer: describer,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Next handles GET /api/next requests. The frame polls this endpoint; the
// kind query parameter selects image (default) or video.
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	kind, err := orchestrator.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_KIND")
		return
	}

	res, err := h.service.RequestAsset(r.Context(), kind)
	if err != nil {
		if errors.Is(err, provider.ErrProvider) {
			h.logger.Error("generation provider failed", slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, "image generation failed", "PROVIDER_ERROR")
			return
		}
		h.logger.Error("asset request failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "asset generation failed", "GENERATION_FAILED")
		return
	}

	resp := NextResponse{
		Mode:             string(res.Mode),
		Prompt:           res.Prompt,
		ImageURL:         res.ImageURL,
		VideoURL:         res.VideoURL,
		ImageGeneratedAt: res.ImageGeneratedAt,
	}
	if !res.VideoGeneratedAt.IsZero() {
		at := res.VideoGeneratedAt
		resp.VideoGeneratedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPrompt handles GET /api/prompt requests.
func (h *Handlers) GetPrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, promptResponse(h.sess.Snapshot()))
}

// UpdatePrompt handles POST /api/prompt requests. Any prompt or mode change
// forces both assets stale so the next poll regenerates them.
func (h *Handlers) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req UpdatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	var refresh *time.Duration
	if req.RefreshSeconds != nil {
		d := time.Duration(*req.RefreshSeconds) * time.Second
		refresh = &d
	}
	h.sess.Update(session.Mode(req.Mode), req.ManualPrompt, req.ThemePrompt, refresh)

	if req.Mode != "" || req.ManualPrompt != "" || req.ThemePrompt != "" {
		h.service.InvalidateSource()
	}

	h.logger.Info("prompt state updated",
		slog.String("mode", req.Mode),
		slog.Bool("manual_changed", req.ManualPrompt != ""),
		slog.Bool("theme_changed", req.ThemePrompt != ""),
	)
	writeJSON(w, http.StatusOK, promptResponse(h.sess.Snapshot()))
}

// UploadInspiration handles POST /upload-inspiration requests. The uploaded
// image or PDF is described by the vision model and the description becomes
// the active prompt.
func (h *Handlers) UploadInspiration(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required", "MISSING_FILE")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload", "READ_FAILED")
		return
	}

	dataURL, err := inspiration.DataURL(header.Filename, data)
	if err != nil {
		h.logger.Warn("unsupported inspiration upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnsupportedMediaType, err.Error(), "UNSUPPORTED_FILE")
		return
	}

	prompt, err := h.describer.DescribeImage(r.Context(), dataURL)
	if err != nil {
		h.logger.Error("vision description failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "could not describe upload", "PROVIDER_ERROR")
		return
	}

	h.sess.SetInspiration(prompt)
	h.service.InvalidateSource()

	h.logger.Info("inspiration accepted",
		slog.String("filename", header.Filename),
		slog.Int("bytes", len(data)),
	)
	writeJSON(w, http.StatusOK, InspirationResponse{
		Prompt: prompt,
		Mode:   string(session.ModeInspiration),
	})
}

func promptResponse(snap session.Snapshot) PromptResponse {
	return PromptResponse{
		Mode:              string(snap.Mode),
		ManualPrompt:      snap.ManualPrompt,
		ThemePrompt:       snap.ThemePrompt,
		CreativePrompt:    snap.CreativePrompt,
		InspirationPrompt: snap.InspirationPrompt,
		RefreshSeconds:    int(snap.RefreshInterval / time.Second),
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
