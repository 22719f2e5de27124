package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func zipWith(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %q: %v", name, err)
		}
		f.Write([]byte(body))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

func tarGzWith(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	for name, body := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
		}); err != nil {
			t.Fatalf("write tar header %q: %v", name, err)
		}
		tw.Write([]byte(body))
	}
	tw.Close()
	gzw.Close()

	return buf.Bytes()
}

func TestExtractZip(t *testing.T) {
	data := zipWith(t, map[string]string{
		"liblwjgl.so":       "native",
		"sub/liblwjgl64.so": "native64",
	})

	dest := t.TempDir()
	if err := ExtractZip(data, dest, false); err != nil {
		t.Fatalf("ExtractZip: %v", err)
	}

	for _, name := range []string{"liblwjgl.so", filepath.Join("sub", "liblwjgl64.so")} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestExtractZipRejectsEscapingEntries(t *testing.T) {
	cases := []string{
		"../evil.sh",
		"a/../../evil.sh",
		"/etc/evil.sh",
	}

	for _, name := range cases {
		parent := t.TempDir()
		dest := filepath.Join(parent, "natives")
		if err := os.Mkdir(dest, 0755); err != nil {
			t.Fatal(err)
		}

		data := zipWith(t, map[string]string{name: "payload"})

		err := ExtractZip(data, dest, false)
		if !errors.Is(err, ErrPathEscape) {
			t.Errorf("entry %q: err = %v, want ErrPathEscape", name, err)
		}

		if _, statErr := os.Stat(filepath.Join(parent, "evil.sh")); statErr == nil {
			t.Errorf("entry %q: escaped file was written", name)
		}
	}
}

func TestExtractTarGzRejectsEscapingEntries(t *testing.T) {
	parent := t.TempDir()
	dest := filepath.Join(parent, "java")

	data := tarGzWith(t, map[string]string{"../evil.sh": "payload"})
	err := ExtractTarGz(data, dest, false)
	if !errors.Is(err, ErrPathEscape) {
		t.Fatalf("err = %v, want ErrPathEscape", err)
	}
	if _, statErr := os.Stat(filepath.Join(parent, "evil.sh")); statErr == nil {
		t.Error("escaped file was written")
	}
}

func TestExtractTarGzStripsTopLevel(t *testing.T) {
	data := tarGzWith(t, map[string]string{
		"jdk-21.0.9+10/bin/java":    "elf",
		"jdk-21.0.9+10/lib/jvm.cfg": "cfg",
	})

	dest := t.TempDir()
	if err := ExtractTarGz(data, dest, true); err != nil {
		t.Fatalf("ExtractTarGz: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "bin", "java")); err != nil {
		t.Errorf("top level was not stripped: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "jdk-21.0.9+10")); err == nil {
		t.Error("wrapping directory still present")
	}
}

func TestExtractZipNoStripWhenMultipleTopLevels(t *testing.T) {
	data := zipWith(t, map[string]string{
		"a/x.txt": "x",
		"b/y.txt": "y",
	})

	dest := t.TempDir()
	if err := ExtractZip(data, dest, true); err != nil {
		t.Fatalf("ExtractZip: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "a", "x.txt")); err != nil {
		t.Errorf("entry a/x.txt missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "b", "y.txt")); err != nil {
		t.Errorf("entry b/y.txt missing: %v", err)
	}
}

func TestTopLevelPrefix(t *testing.T) {
	cases := []struct {
		names []string
		want  string
	}{
		{[]string{"jdk/bin/java", "jdk/lib/a"}, "jdk/"},
		{[]string{"jdk/bin/java", "other/lib/a"}, ""},
		{[]string{"file.txt"}, ""},
		{[]string{"jdk/", "jdk/bin/java"}, "jdk/"},
		{nil, ""},
	}

	for _, tc := range cases {
		if got := topLevelPrefix(tc.names); got != tc.want {
			t.Errorf("topLevelPrefix(%v) = %q, want %q", tc.names, got, tc.want)
		}
	}
}
