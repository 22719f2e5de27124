package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape means an archive entry would have been written outside
// the extraction directory. Archives come from third-party URLs, so
// this aborts the whole extraction.
var ErrPathEscape = errors.New("archive entry escapes destination directory")

// securePath resolves an archive entry name inside dest and fails if
// the resolved path is not a descendant of dest.
func securePath(dest, name string) (string, error) {
	if filepath.IsAbs(name) || filepath.IsAbs(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, name)
	}

	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, name)
	}

	return target, nil
}

// topLevelPrefix returns the single shared top-level component of the
// entry names, with a trailing slash, or "" if the entries do not all
// live under one directory. Installer tarballs usually wrap everything
// in a version-named folder that callers want stripped.
func topLevelPrefix(names []string) string {
	prefix := ""
	for _, name := range names {
		name = strings.TrimPrefix(name, "./")
		if name == "" {
			continue
		}

		top, _, found := strings.Cut(name, "/")
		if !found {
			// A top-level file means there is no wrapping directory.
			return ""
		}
		if prefix == "" {
			prefix = top + "/"
			continue
		}
		if top+"/" != prefix {
			return ""
		}
	}

	return prefix
}

// ExtractZip extracts a zip archive held in memory into dest. When
// stripTopLevel is set, a single shared top-level directory is removed
// from every entry path. Any entry that would resolve outside dest
// aborts the extraction with ErrPathEscape.
func ExtractZip(data []byte, dest string, stripTopLevel bool) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	prefix := ""
	if stripTopLevel {
		names := make([]string, 0, len(r.File))
		for _, f := range r.File {
			names = append(names, f.Name)
		}
		prefix = topLevelPrefix(names)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	for _, f := range r.File {
		name := strings.TrimPrefix(strings.TrimPrefix(f.Name, "./"), prefix)
		if name == "" {
			continue
		}

		target, err := securePath(dest, name)
		if err != nil {
			slog.Error("zip entry escapes extraction dir", slog.String("entry", f.Name), slog.String("dest", dest))
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm()|0600)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(out, rc)
		out.Close()
		rc.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}

	return nil
}

// ExtractTarGz extracts a gzipped tarball held in memory into dest,
// with the same path-escape guarantees as ExtractZip. Top-level
// stripping is two-pass: the first pass discovers the shared component,
// the second extracts.
func ExtractTarGz(data []byte, dest string, stripTopLevel bool) error {
	prefix := ""
	if stripTopLevel {
		names, err := tarEntryNames(data)
		if err != nil {
			return err
		}
		prefix = topLevelPrefix(names)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open tar.gz: %w", err)
	}
	defer gzr.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar.gz: %w", err)
		}

		name := strings.TrimPrefix(strings.TrimPrefix(header.Name, "./"), prefix)
		if name == "" {
			continue
		}

		target, err := securePath(dest, name)
		if err != nil {
			slog.Error("tar entry escapes extraction dir", slog.String("entry", header.Name), slog.String("dest", dest))
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}

			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm()|0600)
			if err != nil {
				return err
			}

			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
			out.Close()
		case tar.TypeSymlink, tar.TypeLink:
			// Links can point anywhere; skip them rather than risk
			// writing through one.
			continue
		}
	}
}

func tarEntryNames(data []byte) ([]string, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open tar.gz: %w", err)
	}
	defer gzr.Close()

	var names []string
	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read tar.gz: %w", err)
		}
		names = append(names, header.Name)
	}
}
