// Package fetch is the artifact fetcher: best-effort HTTP GETs into
// strings, byte slices or files. It does no retrying of its own;
// callers decide what is fatal.
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// StatusError is returned for any non-200 response so that callers can
// special-case specific codes (asset downloads downgrade 404s).
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

type Fetcher struct {
	client    *http.Client
	log       *slog.Logger
	limiter   *RateLimiter
	userAgent string
}

func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Minute},
		log:    slog.Default(),
	}
}

func (f *Fetcher) WithHTTPClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

func (f *Fetcher) WithLogger(log *slog.Logger) *Fetcher {
	f.log = log
	return f
}

// WithRateLimiter throttles every request through the given limiter.
// Used for registry endpoints that enforce a per-IP rate limit.
func (f *Fetcher) WithRateLimiter(limiter *RateLimiter) *Fetcher {
	f.limiter = limiter
	return f
}

func (f *Fetcher) WithUserAgent(agent string) *Fetcher {
	f.userAgent = agent
	return f
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	return resp, nil
}

func (f *Fetcher) String(ctx context.Context, url string) (string, error) {
	data, err := f.Bytes(ctx, url)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (f *Fetcher) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return data, nil
}

// JSON fetches url and decodes the response body into v.
func (f *Fetcher) JSON(ctx context.Context, url string, v any) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}

	return nil
}

// ToFile downloads url to dest, creating parent directories as needed.
// An existing non-empty file at dest is treated as already downloaded
// and skipped without any network request.
func (f *Fetcher) ToFile(ctx context.Context, url, dest string) error {
	return f.ToFileSHA1(ctx, url, dest, "")
}

// ToFileSHA1 is ToFile with integrity checking: the downloaded body
// must hash to sum or the file is discarded and an error returned. An
// empty sum skips the check. The existing-file skip does not re-hash.
func (f *Fetcher) ToFileSHA1(ctx context.Context, url, dest, sum string) error {
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		f.log.Debug("file already exists", slog.String("path", dest))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmpPath := dest + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	hasher := sha1.New()
	if _, err := io.Copy(io.MultiWriter(out, hasher), resp.Body); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if sum != "" {
		if got := hex.EncodeToString(hasher.Sum(nil)); got != sum {
			os.Remove(tmpPath)
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", url, got, sum)
		}
	}

	return os.Rename(tmpPath, dest)
}

// VerifySHA1 checks in-memory data against an expected hex digest. An
// empty sum skips the check.
func VerifySHA1(data []byte, sum string) error {
	if sum == "" {
		return nil
	}

	digest := sha1.Sum(data)
	if got := hex.EncodeToString(digest[:]); got != sum {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, sum)
	}

	return nil
}
