package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestToFileSkipsExistingFile(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("jar bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "libraries", "org", "lwjgl", "lwjgl.jar")
	f := New()

	if err := f.ToFile(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("first download: %v", err)
	}
	if err := f.ToFile(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("second download: %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "jar bytes" {
		t.Errorf("file contents = %q", data)
	}
}

func TestToFileCreatesParentDirs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a", "b", "c", "file.bin")
	if err := New().ToFile(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestToFileSHA1ChecksDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jar bytes"))
	}))
	defer srv.Close()

	digest := sha1.Sum([]byte("jar bytes"))
	good := hex.EncodeToString(digest[:])

	dir := t.TempDir()
	f := New()

	if err := f.ToFileSHA1(context.Background(), srv.URL, filepath.Join(dir, "ok.jar"), good); err != nil {
		t.Fatalf("matching checksum: %v", err)
	}

	bad := filepath.Join(dir, "bad.jar")
	if err := f.ToFileSHA1(context.Background(), srv.URL, bad, strings.Repeat("0", 40)); err == nil {
		t.Fatal("expected a checksum mismatch error")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("mismatched download left a file behind")
	}
	if _, err := os.Stat(bad + ".tmp"); !os.IsNotExist(err) {
		t.Error("mismatched download left its temp file behind")
	}
}

func TestVerifySHA1(t *testing.T) {
	digest := sha1.Sum([]byte("natives"))

	if err := VerifySHA1([]byte("natives"), hex.EncodeToString(digest[:])); err != nil {
		t.Fatalf("matching digest: %v", err)
	}
	if err := VerifySHA1([]byte("natives"), strings.Repeat("0", 40)); err == nil {
		t.Error("expected a mismatch error")
	}
	if err := VerifySHA1([]byte("natives"), ""); err != nil {
		t.Errorf("empty digest should skip the check: %v", err)
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New().Bytes(context.Background(), srv.URL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if !statusErr.NotFound() {
		t.Errorf("expected NotFound() for code %d", statusErr.Code)
	}
}

func TestStringAndJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"1.20.1"}`))
	}))
	defer srv.Close()

	f := New()

	s, err := f.String(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if s != `{"id":"1.20.1"}` {
		t.Errorf("String = %q", s)
	}

	var v struct {
		ID string `json:"id"`
	}
	if err := f.JSON(context.Background(), srv.URL, &v); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if v.ID != "1.20.1" {
		t.Errorf("JSON id = %q", v.ID)
	}
}

func TestUserAgentHeader(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	f := New().WithUserAgent("cometmc/comet (test)")
	if _, err := f.Bytes(context.Background(), srv.URL); err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if agent != "cometmc/comet (test)" {
		t.Errorf("user agent = %q", agent)
	}
}

func TestRateLimiterSpacesCalls(t *testing.T) {
	limiter := NewRateLimiter(50 * time.Millisecond)

	start := time.Now()
	for range 3 {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three calls finished in %v, want at least 100ms", elapsed)
	}
}

func TestRateLimiterZeroInterval(t *testing.T) {
	limiter := NewRateLimiter(0)

	start := time.Now()
	for range 100 {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("zero-interval limiter delayed calls: %v", elapsed)
	}
}
