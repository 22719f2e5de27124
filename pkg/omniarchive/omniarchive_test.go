package omniarchive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cometmc/comet/pkg/fetch"
)

func TestCategoryRoundTrip(t *testing.T) {
	for _, cat := range Categories() {
		parsed, err := ParseCategory(cat.String())
		if err != nil {
			t.Fatalf("ParseCategory(%s): %v", cat, err)
		}
		if parsed != cat {
			t.Errorf("round trip %s -> %s", cat, parsed)
		}
	}

	if _, err := ParseCategory("release"); err == nil {
		t.Error("expected an error for an unknown slug")
	}
}

func TestIndexURL(t *testing.T) {
	got := Beta.IndexURL(false)
	want := BaseURL + "/archive/java/client-beta/index.html"
	if got != want {
		t.Errorf("IndexURL = %q, want %q", got, want)
	}

	got = Classic.IndexURL(true)
	want = BaseURL + "/archive/java/server-classic/index.html"
	if got != want {
		t.Errorf("server IndexURL = %q, want %q", got, want)
	}
}

func TestHasServer(t *testing.T) {
	if !Beta.HasServer() || !Classic.HasServer() || !Alpha.HasServer() {
		t.Error("classic, alpha and beta all shipped servers")
	}
	if Indev.HasServer() || PreClassic.HasServer() || Infdev.HasServer() {
		t.Error("pre-classic, indev and infdev had no servers")
	}
}

func TestNameFromURL(t *testing.T) {
	got := NameFromURL("https://vault.example/archive/java/client-beta/b1.7.3.jar")
	if got != "b1.7.3" {
		t.Errorf("NameFromURL = %q", got)
	}
}

func TestIndexWalksNestedListings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/archive/java/client-beta/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="../">Parent directory</a>
			<a href="b1.7.3.jar">b1.7.3.jar</a>
			<a href="b1.8/index.html">b1.8/</a>
			<a href="b1.6-installer.exe">installer</a>
		</body></html>`))
	})
	mux.HandleFunc("/archive/java/client-beta/b1.8/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="../index.html">Parent</a>
			<a href="b1.8.1.jar">b1.8.1.jar</a>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(fetch.New())
	entries, err := client.walk(context.Background(), Beta,
		srv.URL+"/archive/java/client-beta/index.html", map[string]bool{})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name] = true
		if e.Category != Beta {
			t.Errorf("entry %s has category %s", e.Name, e.Category)
		}
	}

	if !names["b1.7.3"] || !names["b1.8.1"] {
		t.Errorf("entries = %v, want b1.7.3 and b1.8.1", names)
	}
	if names["b1.6-installer"] {
		t.Error("installer exe should be skipped")
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}
