package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Example Domain</title>
<meta property="og:description" content="An example page for tests" />
<meta property="og:image" content="https://cdn.example.com/card.png" />
</head>
<body>hello</body>
</html>`

func TestMetadataFetcher_ScrapesTags(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer ts.Close()

	f := NewMetadataFetcher(0, nil)
	meta := f.Fetch(context.Background(), ts.URL)

	if meta.Title != "Example Domain" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Description != "An example page for tests" {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.Image != "https://cdn.example.com/card.png" {
		t.Errorf("image = %q", meta.Image)
	}
}

func TestMetadataFetcher_FallsBackToStandardDescription(t *testing.T) {
	page := `<html><head><title>T</title><meta name="description" content="plain desc" /></head></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer ts.Close()

	f := NewMetadataFetcher(0, nil)
	meta := f.Fetch(context.Background(), ts.URL)

	if meta.Description != "plain desc" {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.Image != "" {
		t.Errorf("image = %q, want empty", meta.Image)
	}
}

func TestMetadataFetcher_ImageShortCircuit(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer ts.Close()

	f := NewMetadataFetcher(0, nil)
	target := ts.URL + "/photo.jpg?size=large"
	meta := f.Fetch(context.Background(), target)

	if requests.Load() != 0 {
		t.Fatalf("image target was fetched %d times, want 0", requests.Load())
	}
	if meta.Title != "Shared image" || meta.Image != target || meta.Description != target {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestMetadataFetcher_UnreachableHostDegrades(t *testing.T) {
	f := NewMetadataFetcher(200*time.Millisecond, nil)
	target := "http://127.0.0.1:1/page"

	start := time.Now()
	meta := f.Fetch(context.Background(), target)
	elapsed := time.Since(start)

	if meta.Title != target {
		t.Errorf("title = %q, want %q", meta.Title, target)
	}
	if meta.Description != "Redirects to "+target {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.Image != "" {
		t.Errorf("image = %q, want empty", meta.Image)
	}
	if elapsed > 2*time.Second {
		t.Errorf("degraded fetch took %v, want well under the timeout bound", elapsed)
	}
}

func TestMetadataFetcher_CachesResults(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}))
	defer ts.Close()

	f := NewMetadataFetcher(0, nil)
	f.Fetch(context.Background(), ts.URL)
	f.Fetch(context.Background(), ts.URL)

	if requests.Load() != 1 {
		t.Fatalf("target fetched %d times, want 1", requests.Load())
	}
}
