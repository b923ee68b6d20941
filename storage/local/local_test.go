package local

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestStorage_UploadDownload(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	payload := []byte("RIFF....WAVEfmt ")
	if err := s.Upload(ctx, "recordings/s1.wav", bytes.NewReader(payload)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	ok, err := s.Exists(ctx, "recordings/s1.wav")
	if err != nil || !ok {
		t.Fatalf("expected file to exist, ok=%v err=%v", ok, err)
	}

	rc, err := s.Download(ctx, "recordings/s1.wav")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, payload) {
		t.Errorf("downloaded bytes differ from uploaded bytes")
	}

	info, err := s.Stat(ctx, "recordings/s1.wav")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), info.Size)
	}
}

func TestStorage_DeleteMissingIsNil(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete(context.Background(), "nope.wav"); err != nil {
		t.Errorf("expected nil deleting a missing file, got %v", err)
	}
}

func TestStorage_DownloadMissing(t *testing.T) {
	s, _ := NewStorage(t.TempDir())
	if _, err := s.Download(context.Background(), "missing.wav"); err == nil {
		t.Error("expected error downloading a missing file")
	}
}
