// Package java provisions the Java runtimes the game needs. Runtimes
// are keyed by major version under <root>/java and fetched from the
// Adoptium API, which redirects to the right Temurin build for the
// platform.
package java

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
)

// DefaultMajor is used when a version document names no Java version.
// Everything before 1.17 runs on 8.
const DefaultMajor = 8

type Runtime struct {
	fetcher *fetch.Fetcher
	layout  layout.Layout
	log     *slog.Logger
}

func NewRuntime(f *fetch.Fetcher, lay layout.Layout) *Runtime {
	return &Runtime{fetcher: f, layout: lay, log: slog.Default()}
}

func (r *Runtime) WithLogger(log *slog.Logger) *Runtime {
	r.log = log
	return r
}

// InstallDir is where a major version's runtime lives.
func (r *Runtime) InstallDir(major int) string {
	return filepath.Join(r.layout.Root, "java", fmt.Sprintf("%d", major))
}

// Executable is the java binary path inside an installed runtime.
func (r *Runtime) Executable(major int) string {
	dir := r.InstallDir(major)
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(dir, "bin", "java.exe")
	case "darwin":
		return filepath.Join(dir, "Contents", "Home", "bin", "java")
	default:
		return filepath.Join(dir, "bin", "java")
	}
}

// DownloadURL is the Adoptium latest-GA binary endpoint for the
// platform. Empty when the platform has no Temurin builds.
func DownloadURL(major int) string {
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "mac"
	}

	var arch string
	switch runtime.GOARCH {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "aarch64"
	case "arm":
		arch = "arm"
	case "386":
		arch = "x86-32"
	default:
		return ""
	}

	return fmt.Sprintf("https://api.adoptium.net/v3/binary/latest/%d/ga/%s/%s/jdk/hotspot/normal/eclipse",
		major, osName, arch)
}

// Ensure returns the path to a java executable for the major version,
// downloading and unpacking the runtime on first use.
func (r *Runtime) Ensure(ctx context.Context, major int) (string, error) {
	if major <= 0 {
		major = DefaultMajor
	}

	exe := r.Executable(major)
	if _, err := os.Stat(exe); err == nil {
		return exe, nil
	}

	url := DownloadURL(major)
	if url == "" {
		return "", fmt.Errorf("no java %d build for %s/%s", major, runtime.GOOS, runtime.GOARCH)
	}

	r.log.Info("downloading java runtime",
		slog.Int("major", major), slog.String("url", url))

	data, err := r.fetcher.Bytes(ctx, url)
	if err != nil {
		return "", fmt.Errorf("java %d: %w", major, err)
	}

	dir := r.InstallDir(major)
	os.RemoveAll(dir)

	// Windows builds ship as zip, everything else as tar.gz. Both wrap
	// the runtime in a release-named directory.
	if runtime.GOOS == "windows" {
		err = fetch.ExtractZip(data, dir, true)
	} else {
		err = fetch.ExtractTarGz(data, dir, true)
	}
	if err != nil {
		return "", fmt.Errorf("java %d: %w", major, err)
	}

	if _, err := os.Stat(exe); err != nil {
		return "", fmt.Errorf("java %d: no executable at %s after install", major, exe)
	}

	return exe, nil
}
