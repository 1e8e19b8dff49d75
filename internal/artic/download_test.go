package artic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestDownloadImageSavesFile(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(t)
	dir := t.TempDir()

	path, err := client.DownloadImage(context.Background(), "img-0007", dir)
	if err != nil {
		t.Fatalf("DownloadImage() error = %v", err)
	}
	if want := filepath.Join(dir, "img-0007.jpg"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if !strings.HasSuffix(string(data), "img-0007") {
		t.Fatalf("unexpected image body %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "img-0007"+metaSuffix)); err != nil {
		t.Fatalf("meta file missing: %v", err)
	}
}

func TestDownloadImageRevalidatesWithETag(t *testing.T) {
	t.Parallel()

	var full, notModified int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			atomic.AddInt32(&notModified, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		atomic.AddInt32(&full, 1)
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, IIIFURL: server.URL, HTTPClient: server.Client()})
	dir := t.TempDir()
	ctx := context.Background()

	first, err := client.DownloadImage(ctx, "abc", dir)
	if err != nil {
		t.Fatalf("first download: %v", err)
	}
	second, err := client.DownloadImage(ctx, "abc", dir)
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %s vs %s", first, second)
	}
	if f, n := atomic.LoadInt32(&full), atomic.LoadInt32(&notModified); f != 1 || n != 1 {
		t.Fatalf("full=%d notModified=%d, want 1 and 1", f, n)
	}
}

func TestDownloadImageResumesPartialFile(t *testing.T) {
	t.Parallel()

	const body = "0123456789abcdef"
	var rangeHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		rangeHeader.Store(rng)
		if rng == "" {
			_, _ = w.Write([]byte(body))
			return
		}
		var start int
		if _, err := fmt.Sscanf(rng, "bytes=%d-", &start); err != nil {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(body)-1, len(body)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(body[start:]))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "resume"+partialSuffix), []byte(body[:6]), 0o644); err != nil {
		t.Fatalf("seed partial file: %v", err)
	}

	client := NewClient(Config{BaseURL: server.URL, IIIFURL: server.URL, HTTPClient: server.Client()})
	path, err := client.DownloadImage(context.Background(), "resume", dir)
	if err != nil {
		t.Fatalf("DownloadImage() error = %v", err)
	}
	if got, _ := rangeHeader.Load().(string); got != "bytes=6-" {
		t.Fatalf("Range header = %q, want bytes=6-", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(data) != body {
		t.Fatalf("resumed body = %q, want %q", data, body)
	}
	if _, err := os.Stat(filepath.Join(dir, "resume"+partialSuffix)); !os.IsNotExist(err) {
		t.Fatalf("partial file should be gone, stat err = %v", err)
	}
}

func TestDownloadImageRequiresImage(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{})
	if _, err := client.DownloadImage(context.Background(), "", t.TempDir()); err == nil {
		t.Fatalf("DownloadImage() with empty image id succeeded")
	}
}
