package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/transcription"
)

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF fake wav"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("language"); got != "ru" {
			t.Errorf("expected language=ru, got %q", got)
		}
		if got := r.FormValue("initial_prompt"); got != "meeting notes" {
			t.Errorf("expected initial_prompt to pass through, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"привет мир","language":"ru"}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{URL: srv.URL})
	resp, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{
		AudioPath: writeClip(t),
		Language:  "ru",
		Prompt:    "meeting notes",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "привет мир" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.Language != "ru" {
		t.Errorf("unexpected language %q", resp.Language)
	}
}

func TestTranscribe_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewProvider(Config{URL: srv.URL})
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: writeClip(t)})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != errors.ErrCodeBackendRateLimited {
		t.Errorf("expected BACKEND_RATE_LIMITED, got %s", appErr.Code)
	}
	if appErr.Retryable {
		t.Error("rate limited must not be retryable")
	}
}

func TestTranscribe_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(Config{URL: srv.URL})
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: writeClip(t)})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if !appErr.Retryable {
		t.Error("5xx should be retryable")
	}
}

func TestTranscribe_ConnectionRefused(t *testing.T) {
	p := NewProvider(Config{URL: "http://127.0.0.1:1"})
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: writeClip(t)})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != errors.ErrCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %s", appErr.Code)
	}
}
