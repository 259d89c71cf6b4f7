package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frameloop/frameloop/internal/orchestrator"
	"github.com/frameloop/frameloop/internal/provider"
	"github.com/frameloop/frameloop/internal/session"
	"github.com/frameloop/frameloop/internal/storage"
)

type fakeService struct {
	result      *orchestrator.Result
	err         error
	lastKind    orchestrator.AssetKind
	invalidated int
}

func (f *fakeService) RequestAsset(ctx context.Context, kind orchestrator.AssetKind) (*orchestrator.Result, error) {
	f.lastKind = kind
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeService) InvalidateSource() { f.invalidated++ }

type fakeDescriber struct {
	prompt string
	err    error
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, dataURL string) (string, error) {
	return f.prompt, f.err
}

func newTestServer(t *testing.T, svc *fakeService, desc *fakeDescriber) (*httptest.Server, *session.State) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	sess := session.New(session.ModeManual, "a quiet lake", "landscapes", 5*time.Minute)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := NewHandlers(svc, sess, desc, logger)

	ts := httptest.NewServer(NewRouter(h, store, logger))
	t.Cleanup(ts.Close)
	return ts, sess
}

func defaultResult() *orchestrator.Result {
	return &orchestrator.Result{
		Mode:             session.ModeManual,
		Prompt:           "a quiet lake",
		ImageURL:         "/images/current.png",
		ImageGeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeService{result: defaultResult()}, &fakeDescriber{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNextImage(t *testing.T) {
	svc := &fakeService{result: defaultResult()}
	ts, _ := newTestServer(t, svc, &fakeDescriber{})

	resp, err := http.Get(ts.URL + "/api/next")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orchestrator.KindImage, svc.lastKind)

	var body NextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "manual", body.Mode)
	assert.Equal(t, "/images/current.png", body.ImageURL)
	assert.Empty(t, body.VideoURL)
	assert.Nil(t, body.VideoGeneratedAt)
}

func TestNextVideo(t *testing.T) {
	res := defaultResult()
	res.VideoURL = "/videos/current.mp4"
	res.VideoGeneratedAt = res.ImageGeneratedAt.Add(30 * time.Second)
	svc := &fakeService{result: res}
	ts, _ := newTestServer(t, svc, &fakeDescriber{})

	resp, err := http.Get(ts.URL + "/api/next?kind=video")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orchestrator.KindVideo, svc.lastKind)

	var body NextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/videos/current.mp4", body.VideoURL)
	require.NotNil(t, body.VideoGeneratedAt)
	assert.True(t, body.VideoGeneratedAt.After(body.ImageGeneratedAt))
}

func TestNextRejectsUnknownKind(t *testing.T) {
	ts, _ := newTestServer(t, &fakeService{result: defaultResult()}, &fakeDescriber{})

	resp, err := http.Get(ts.URL + "/api/next?kind=gif")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNextProviderFailureIsBadGateway(t *testing.T) {
	ts, _ := newTestServer(t, &fakeService{err: provider.ErrProvider}, &fakeDescriber{})

	resp, err := http.Get(ts.URL + "/api/next")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPromptRoundtrip(t *testing.T) {
	svc := &fakeService{result: defaultResult()}
	ts, sess := newTestServer(t, svc, &fakeDescriber{})

	body := strings.NewReader(`{"mode":"creative","theme_prompt":"storms","refresh_seconds":120}`)
	resp, err := http.Post(ts.URL+"/api/prompt", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got PromptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "creative", got.Mode)
	assert.Equal(t, "storms", got.ThemePrompt)
	assert.Equal(t, "a quiet lake", got.ManualPrompt)
	assert.Equal(t, 120, got.RefreshSeconds)

	assert.Equal(t, 1, svc.invalidated, "prompt change must force assets stale")
	assert.Equal(t, session.ModeCreative, sess.Snapshot().Mode)

	getResp, err := http.Get(ts.URL + "/api/prompt")
	require.NoError(t, err)
	defer getResp.Body.Close()
	var fetched PromptResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	assert.Equal(t, got, fetched)
}

func TestPromptRefreshOnlyDoesNotInvalidate(t *testing.T) {
	svc := &fakeService{result: defaultResult()}
	ts, _ := newTestServer(t, svc, &fakeDescriber{})

	body := strings.NewReader(`{"refresh_seconds":600}`)
	resp, err := http.Post(ts.URL+"/api/prompt", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 0, svc.invalidated)
}

func TestPromptValidation(t *testing.T) {
	ts, _ := newTestServer(t, &fakeService{result: defaultResult()}, &fakeDescriber{})

	for _, payload := range []string{
		`{"mode":"party"}`,
		`{"refresh_seconds":10}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/api/prompt", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)
	}
}

func postUpload(t *testing.T, url, filename string, data []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/upload-inspiration", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUploadInspiration(t *testing.T) {
	svc := &fakeService{result: defaultResult()}
	desc := &fakeDescriber{prompt: "a foggy harbor at dawn"}
	ts, sess := newTestServer(t, svc, desc)

	resp := postUpload(t, ts.URL, "photo.png", []byte{1, 2, 3})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body InspirationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "a foggy harbor at dawn", body.Prompt)
	assert.Equal(t, "inspiration", body.Mode)

	snap := sess.Snapshot()
	assert.Equal(t, session.ModeInspiration, snap.Mode)
	assert.Equal(t, "a foggy harbor at dawn", snap.ActivePrompt())
	assert.Equal(t, 1, svc.invalidated)
}

func TestUploadInspirationRejectsUnsupported(t *testing.T) {
	svc := &fakeService{result: defaultResult()}
	ts, _ := newTestServer(t, svc, &fakeDescriber{prompt: "x"})

	resp := postUpload(t, ts.URL, "vacation.heic", []byte{1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, 0, svc.invalidated)
}
