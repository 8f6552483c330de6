package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mschroeder/mediumpress/pkg/images"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestFetchAll_WritesFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	jobs := []images.Job{
		{OriginalURL: srv.URL + "/a.png", Filename: "post-1.png"},
		{OriginalURL: srv.URL + "/b.png", Filename: "post-2.png"},
	}

	results := New(testConfig()).FetchAll(context.Background(), jobs, dir)

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		data, err := os.ReadFile(res.Path)
		if err != nil {
			t.Fatalf("read %s: %v", res.Path, err)
		}
		if string(data) != "png-bytes" {
			t.Errorf("file content = %q", data)
		}
	}
	if got := filepath.Base(results[0].Path); got != "post-1.png" {
		t.Errorf("filename = %q", got)
	}
}

func TestFetchAll_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	jobs := []images.Job{{OriginalURL: srv.URL + "/x.png", Filename: "x.png"}}
	results := New(testConfig()).FetchAll(context.Background(), jobs, t.TempDir())

	if results[0].Err != nil {
		t.Fatalf("expected eventual success, got %v", results[0].Err)
	}
	if results[0].Attempts != 3 {
		t.Errorf("attempts = %d, want 3", results[0].Attempts)
	}
}

func TestFetchAll_PersistentFailureIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	jobs := []images.Job{{OriginalURL: srv.URL + "/x.png", Filename: "x.png"}}
	results := New(testConfig()).FetchAll(context.Background(), jobs, t.TempDir())

	if results[0].Err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if results[0].Attempts != 3 { // initial try + 2 retries
		t.Errorf("attempts = %d, want 3", results[0].Attempts)
	}
	if results[0].Path != "" {
		t.Errorf("path = %q, want empty on failure", results[0].Path)
	}
}

func TestFetchAll_EmptyJobs(t *testing.T) {
	if results := New(testConfig()).FetchAll(context.Background(), nil, t.TempDir()); results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

func TestNew_Defaults(t *testing.T) {
	f := New(Config{})
	if f.config.Workers != 3 {
		t.Errorf("workers = %d", f.config.Workers)
	}
	if f.config.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", f.config.Timeout)
	}
	if f.config.UserAgent == "" {
		t.Error("expected default user agent")
	}
}
