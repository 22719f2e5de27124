package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/natives"
	"github.com/cometmc/comet/pkg/pool"
)

// downloader pulls the artifacts a version document names into an
// instance. The fan-out stages report progress through ch.
type downloader struct {
	fetcher *fetch.Fetcher
	layout  layout.Layout
	log     *slog.Logger
	limit   int
	ch      chan<- Progress
}

func (d *downloader) jar(ctx context.Context, name string, details *mojang.VersionDetails, server bool, overrideURL string) error {
	report(d.ch, Progress{Stage: StageJar})

	url := overrideURL
	file := "client.jar"
	if server {
		file = "server.jar"
	}

	// Archived jars come with no published checksum.
	var sum string
	if url == "" {
		entry := details.Downloads.Client
		if server {
			entry = details.Downloads.Server
		}
		if entry == nil {
			return fmt.Errorf("%s: version %s has no %s download", name, details.ID, file)
		}
		url, sum = entry.URL, entry.SHA1
	}

	return d.fetcher.ToFileSHA1(ctx, url, filepath.Join(d.layout.GameDir(name, server), file), sum)
}

func (d *downloader) loggingConfig(ctx context.Context, name string, details *mojang.VersionDetails) error {
	report(d.ch, Progress{Stage: StageLoggingConfig})

	if details.Logging == nil || details.Logging.Client == nil {
		// Pre-1.7 versions have no log4j config.
		return nil
	}

	file := details.Logging.Client.File
	dest := filepath.Join(d.layout.InstanceDir(name, false), "logging-"+file.ID)
	return d.fetcher.ToFileSHA1(ctx, file.URL, dest, file.SHA1)
}

// libraries downloads every library allowed on this platform, plus the
// natives classifier jars, which get extracted into the natives dir.
func (d *downloader) libraries(ctx context.Context, name string, details *mojang.VersionDetails, server bool) error {
	osName, arch := mojang.OSName(), mojang.ArchName()

	var wanted []mojang.Library
	for _, lib := range details.Libraries {
		if !lib.Allowed(osName, arch) {
			continue
		}
		wanted = append(wanted, lib)
	}

	total := len(wanted)
	report(d.ch, Progress{Stage: StageLibraries, Done: 0, Total: total})

	var done atomic.Int64
	tasks := make([]func(context.Context) error, 0, total)
	for _, lib := range wanted {
		tasks = append(tasks, func(ctx context.Context) error {
			if err := d.library(ctx, name, lib, osName, server); err != nil {
				return err
			}

			report(d.ch, Progress{Stage: StageLibraries, Done: int(done.Add(1)), Total: total})
			return nil
		})
	}

	return pool.Run(ctx, d.limit, tasks)
}

func (d *downloader) library(ctx context.Context, name string, lib mojang.Library, osName string, server bool) error {
	libDir := d.layout.LibrariesDir(name, server)

	if art := lib.Downloads.Artifact; art != nil && art.URL != "" {
		url, sum := art.URL, art.SHA1
		dest := filepath.Join(libDir, filepath.FromSlash(art.Path))
		if natives.Applies() {
			if patch, ok := natives.PatchFor(lib.Name); ok {
				d.log.Info("substituting arm build", slog.String("library", lib.Name))
				url, sum = patch.URL, patch.SHA1
			}
		}
		if err := d.fetcher.ToFileSHA1(ctx, url, dest, sum); err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
	}

	classifier := lib.NativeClassifier(osName)
	if classifier == "" {
		return nil
	}

	art, ok := lib.Downloads.Classifiers[classifier]
	if !ok {
		d.log.Warn("natives classifier missing from downloads",
			slog.String("library", lib.Name), slog.String("classifier", classifier))
		return nil
	}

	url, sum := art.URL, art.SHA1
	if natives.Applies() {
		if patch, ok := natives.PatchFor(lib.Name + ":" + classifier); ok {
			d.log.Info("substituting arm natives", slog.String("library", lib.Name))
			url, sum = patch.URL, patch.SHA1
		}
	}

	data, err := d.fetcher.Bytes(ctx, url)
	if err != nil {
		return fmt.Errorf("natives %s: %w", lib.Name, err)
	}
	if err := fetch.VerifySHA1(data, sum); err != nil {
		return fmt.Errorf("natives %s: %w", lib.Name, err)
	}

	nativesDir := d.layout.NativesDir(name, server)
	if err := fetch.ExtractZip(data, nativesDir, false); err != nil {
		return fmt.Errorf("natives %s: %w", lib.Name, err)
	}

	// The exclude list names directories (META-INF/ mostly) that must
	// not end up next to the shared objects.
	if lib.Extract != nil {
		for _, exclude := range lib.Extract.Exclude {
			os.RemoveAll(filepath.Join(nativesDir, filepath.FromSlash(exclude)))
		}
	}

	return nil
}

// assets downloads the asset index and every object it names into the
// shared content-addressed store. A missing object is logged and
// skipped; old archived indexes routinely reference a few files the
// CDN no longer has, and the game copes.
func (d *downloader) assets(ctx context.Context, details *mojang.VersionDetails) error {
	if details.AssetIndex == nil {
		return nil
	}

	ref := details.AssetIndex
	data, err := d.fetcher.Bytes(ctx, ref.URL)
	if err != nil {
		return fmt.Errorf("asset index %s: %w", ref.ID, err)
	}
	if err := fetch.VerifySHA1(data, ref.SHA1); err != nil {
		return fmt.Errorf("asset index %s: %w", ref.ID, err)
	}

	index, err := mojang.ParseAssetIndex(data)
	if err != nil {
		return err
	}

	// The game resolves the index as <assets_root>/indexes/<id>.json.
	indexPath := d.layout.AssetIndexPath(ref.ID)
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return err
	}

	legacy := ref.ID == "legacy" || ref.ID == "pre-1.6"

	total := len(index.Objects)
	report(d.ch, Progress{Stage: StageAssets, Done: 0, Total: total})

	var done atomic.Int64
	tasks := make([]func(context.Context) error, 0, total)
	for virtualPath, obj := range index.Objects {
		tasks = append(tasks, func(ctx context.Context) error {
			dest := d.layout.AssetObjectPath(ref.ID, obj.Hash)
			err := d.fetcher.ToFileSHA1(ctx, obj.DownloadURL(), dest, obj.Hash)

			var statusErr *fetch.StatusError
			switch {
			case errors.As(err, &statusErr) && statusErr.NotFound():
				d.log.Warn("asset missing upstream",
					slog.String("asset", virtualPath), slog.String("hash", obj.Hash))
			case err != nil:
				return fmt.Errorf("asset %s: %w", virtualPath, err)
			case legacy:
				if err := d.legacyAsset(virtualPath, dest); err != nil {
					return fmt.Errorf("asset %s: %w", virtualPath, err)
				}
			}

			report(d.ch, Progress{Stage: StageAssets, Done: int(done.Add(1)), Total: total})
			return nil
		})
	}

	return pool.Run(ctx, d.limit, tasks)
}

// legacyAsset copies a downloaded object to its logical name under the
// shared legacy dir, where pre-1.7 clients look assets up.
func (d *downloader) legacyAsset(virtualPath, objectPath string) error {
	rel := filepath.FromSlash(virtualPath)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("unsafe asset path %q", virtualPath)
	}

	dest := filepath.Join(d.layout.LegacyAssetsDir(), rel)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	data, err := os.ReadFile(objectPath)
	if err != nil {
		return err
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, dest)
}
