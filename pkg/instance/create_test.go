package instance

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/omniarchive"
	"github.com/cometmc/comet/pkg/resolve"
)

type staticManifest struct {
	m *mojang.Manifest
}

func (s staticManifest) Manifest(context.Context) (*mojang.Manifest, error) {
	return s.m, nil
}

type emptyArchive struct{}

func (emptyArchive) Index(context.Context, omniarchive.Category, bool) ([]omniarchive.Entry, error) {
	return nil, nil
}

func sha1Hex(s string) string {
	digest := sha1.Sum([]byte(s))
	return hex.EncodeToString(digest[:])
}

const (
	iconBytes  = "icon png bytes"
	grassBytes = "grass sound bytes"
)

func assetsBody(base string) string {
	return fmt.Sprintf(`{"objects": {
		"icons/icon_16x16.png": {"hash": %q, "size": 14, "url": %q},
		"lang/gone.json": {"hash": "bb22", "size": 1, "url": %q}
	}}`, sha1Hex(iconBytes), base+"/objects/icon", base+"/objects/gone")
}

func legacyAssetsBody(base string) string {
	return fmt.Sprintf(`{"objects": {
		"sound/step/grass.ogg": {"hash": %q, "size": 17, "url": %q}
	}}`, sha1Hex(grassBytes), base+"/objects/grass")
}

// fixtureServer serves two complete versions: a modern document with a
// jar, one library, logging config and a two-object asset index with
// one object missing upstream, and a pre-1.7 document on the legacy
// asset index.
func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/1.20.1.json", func(w http.ResponseWriter, r *http.Request) {
		assets := assetsBody(srv.URL)
		fmt.Fprintf(w, `{
			"id": "1.20.1",
			"type": "release",
			"mainClass": "net.minecraft.client.main.Main",
			"assetIndex": {"id": "5", "sha1": %q, "size": 1, "totalSize": 2, "url": %q},
			"downloads": {
				"client": {"sha1": %q, "size": 1, "url": %q},
				"server": {"sha1": %q, "size": 1, "url": %q}
			},
			"libraries": [
				{"name": "com.mojang:brigadier:1.1.8", "downloads": {"artifact": {"path": "com/mojang/brigadier/1.1.8/brigadier-1.1.8.jar", "sha1": %q, "size": 1, "url": %q}}}
			],
			"logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "file": {"id": "client-1.12.xml", "sha1": %q, "size": 1, "url": %q}, "type": "log4j2-xml"}}
		}`, sha1Hex(assets), srv.URL+"/assets.json",
			sha1Hex("content of /client.jar"), srv.URL+"/client.jar",
			sha1Hex("content of /server.jar"), srv.URL+"/server.jar",
			sha1Hex("content of /brigadier.jar"), srv.URL+"/brigadier.jar",
			sha1Hex("content of /log.xml"), srv.URL+"/log.xml")
	})
	mux.HandleFunc("/assets.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, assetsBody(srv.URL))
	})
	mux.HandleFunc("/1.5.2.json", func(w http.ResponseWriter, r *http.Request) {
		assets := legacyAssetsBody(srv.URL)
		fmt.Fprintf(w, `{
			"id": "1.5.2",
			"type": "release",
			"mainClass": "net.minecraft.client.Minecraft",
			"minecraftArguments": "--username ${auth_player_name}",
			"assetIndex": {"id": "legacy", "sha1": %q, "size": 1, "totalSize": 1, "url": %q},
			"downloads": {"client": {"sha1": %q, "size": 1, "url": %q}}
		}`, sha1Hex(assets), srv.URL+"/legacy-assets.json",
			sha1Hex("content of /old-client.jar"), srv.URL+"/old-client.jar")
	})
	mux.HandleFunc("/legacy-assets.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, legacyAssetsBody(srv.URL))
	})
	mux.HandleFunc("/objects/icon", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, iconBytes)
	})
	mux.HandleFunc("/objects/grass", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, grassBytes)
	})
	mux.HandleFunc("/objects/gone", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content of " + r.URL.Path))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fixtureCreator(t *testing.T, srv *httptest.Server, lay layout.Layout) *Creator {
	t.Helper()

	manifest := &mojang.Manifest{Versions: []mojang.ManifestVersion{
		{ID: "1.20.1", Type: "release", URL: srv.URL + "/1.20.1.json"},
		{ID: "1.5.2", Type: "release", URL: srv.URL + "/1.5.2.json"},
	}}
	resolver := resolve.New(staticManifest{manifest}, emptyArchive{})

	return NewCreator(fetch.New(), lay).WithResolver(resolver).WithConcurrency(4)
}

func TestCreateVanillaInstance(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay)

	progress := make(chan Progress, 256)
	err := creator.Create(context.Background(), CreateOptions{
		Name:           "survival",
		Version:        "1.20.1",
		DownloadAssets: true,
		Progress:       progress,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dir := lay.InstanceDir("survival", false)
	for _, path := range []string{
		filepath.Join(dir, DetailsFileName),
		filepath.Join(dir, ConfigFileName),
		filepath.Join(dir, VersionMarkerFileName),
		filepath.Join(dir, "logging-client-1.12.xml"),
		filepath.Join(lay.GameDir("survival", false), "client.jar"),
		filepath.Join(lay.GameDir("survival", false), ProfilesFileName),
		filepath.Join(lay.LibrariesDir("survival", false), "com", "mojang", "brigadier", "1.1.8", "brigadier-1.1.8.jar"),
		lay.ModsDir("survival", false),
		lay.AssetIndexPath("5"),
		lay.AssetObjectPath("5", sha1Hex(iconBytes)),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}

	// The missing asset must have been tolerated, not written.
	if _, err := os.Stat(lay.AssetObjectPath("5", "bb22")); !os.IsNotExist(err) {
		t.Error("404 asset should not exist on disk")
	}

	// A modern index never populates the by-name legacy store.
	if _, err := os.Stat(lay.LegacyAssetsDir()); !os.IsNotExist(err) {
		t.Error("legacy assets dir should not exist for a modern index")
	}

	details, err := LoadDetails(dir)
	if err != nil {
		t.Fatalf("LoadDetails: %v", err)
	}
	if details.ID != "1.20.1" {
		t.Errorf("details id = %q", details.ID)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ModType != ModTypeVanilla {
		t.Errorf("mod type = %q", cfg.ModType)
	}

	close(progress)
	prev := -1.0
	for p := range progress {
		if v := p.Value(); v < prev {
			t.Fatalf("progress regressed: %v after %v", v, prev)
		} else {
			prev = v
		}
	}
}

func TestCreateWithoutAssets(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay)

	err := creator.Create(context.Background(), CreateOptions{
		Name:           "lean",
		Version:        "1.20.1",
		DownloadAssets: false,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	details, err := LoadDetails(lay.InstanceDir("lean", false))
	if err != nil {
		t.Fatalf("LoadDetails: %v", err)
	}
	if details.MainClass != "net.minecraft.client.main.Main" {
		t.Errorf("mainClass = %q", details.MainClass)
	}

	cfg, err := LoadConfig(lay.InstanceDir("lean", false))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ModType != ModTypeVanilla {
		t.Errorf("mod type = %q", cfg.ModType)
	}

	if entries, err := os.ReadDir(lay.ModsDir("lean", false)); err != nil || len(entries) != 0 {
		t.Errorf("mods dir should exist and be empty: %v %v", entries, err)
	}

	if _, err := os.Stat(lay.AssetsDir()); !os.IsNotExist(err) {
		t.Error("assets root should be untouched when assets are skipped")
	}
}

func TestCreateLegacyAssetsByName(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay)

	err := creator.Create(context.Background(), CreateOptions{
		Name:           "retro",
		Version:        "1.5.2",
		DownloadAssets: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Pre-1.7 clients read assets by logical name, so the object must
	// exist under it next to the hash store.
	named := filepath.Join(lay.LegacyAssetsDir(), "sound", "step", "grass.ogg")
	data, err := os.ReadFile(named)
	if err != nil {
		t.Fatalf("named asset copy: %v", err)
	}
	if string(data) != grassBytes {
		t.Errorf("named asset contents = %q", data)
	}

	for _, path := range []string{
		lay.AssetIndexPath("legacy"),
		lay.AssetObjectPath("legacy", sha1Hex(grassBytes)),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}
}

func TestCreateSeedsConfiguredRAM(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay).WithDefaultRAM(3072)

	err := creator.Create(context.Background(), CreateOptions{Name: "tuned", Version: "1.20.1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cfg, err := LoadConfig(lay.InstanceDir("tuned", false))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAMInMB != 3072 {
		t.Errorf("ram = %d, want 3072", cfg.RAMInMB)
	}
}

func TestCreateRefusesExistingInstance(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay)

	if err := os.MkdirAll(lay.InstanceDir("taken", false), 0755); err != nil {
		t.Fatal(err)
	}

	err := creator.Create(context.Background(), CreateOptions{Name: "taken", Version: "1.20.1"})
	if !errors.Is(err, ErrInstanceExists) {
		t.Fatalf("err = %v, want ErrInstanceExists", err)
	}
}

func TestCreateRejectsUnsafeName(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay)

	for _, name := range []string{"", "..", "a/b"} {
		if err := creator.Create(context.Background(), CreateOptions{Name: name, Version: "1.20.1"}); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}

func TestCreateServerVanilla(t *testing.T) {
	srv := fixtureServer(t)
	lay := layout.Layout{Root: t.TempDir()}
	creator := fixtureCreator(t, srv, lay)

	err := creator.CreateServer(context.Background(), CreateOptions{Name: "smp", Version: "1.20.1"})
	if err != nil {
		t.Fatalf("CreateServer: %v", err)
	}

	dir := lay.InstanceDir("smp", true)
	for _, path := range []string{
		filepath.Join(dir, "server.jar"),
		filepath.Join(dir, "eula.txt"),
		filepath.Join(dir, ConfigFileName),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}

	eula, err := os.ReadFile(filepath.Join(dir, "eula.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(eula) != "eula=true\n" {
		t.Errorf("eula contents = %q", eula)
	}
}

func TestListAndDelete(t *testing.T) {
	lay := layout.Layout{Root: t.TempDir()}
	for _, name := range []string{"one", "two"} {
		if err := os.MkdirAll(lay.InstanceDir(name, false), 0755); err != nil {
			t.Fatal(err)
		}
	}

	names, err := List(lay, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v", names)
	}

	if err := Delete(lay, "one", false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, _ = List(lay, false)
	if len(names) != 1 || names[0] != "two" {
		t.Errorf("after delete: %v", names)
	}

	if err := Delete(lay, "../two", false); err == nil {
		t.Error("unsafe delete name should be rejected")
	}
}
