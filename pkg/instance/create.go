// Package instance creates and manages game instances: directory
// skeletons, version artifacts, per-instance config and mod loaders.
package instance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/omniarchive"
	"github.com/cometmc/comet/pkg/pool"
	"github.com/cometmc/comet/pkg/resolve"
)

// ErrInstanceExists means the target instance directory is already
// populated.
var ErrInstanceExists = errors.New("instance already exists")

// DetailsFileName is the version document stored at the instance root
// so launches never need the network.
const DetailsFileName = "details.json"

// VersionMarkerFileName records which launcher version created the
// instance, for future migrations.
const VersionMarkerFileName = "launcher_version.txt"

// LauncherVersion is written into new instances.
const LauncherVersion = "0.4.1"

// Creator builds instances. One Creator serves any number of creations.
type Creator struct {
	fetcher  *fetch.Fetcher
	layout   layout.Layout
	resolver *resolve.Resolver
	manifest *resolve.ManifestCache
	log      *slog.Logger
	limit    int
	ramMB    int
}

func NewCreator(f *fetch.Fetcher, lay layout.Layout) *Creator {
	manifest := resolve.NewManifestCache(f)
	return &Creator{
		fetcher:  f,
		layout:   lay,
		resolver: resolve.NewLive(f, manifest),
		manifest: manifest,
		log:      slog.Default(),
		limit:    pool.DefaultLimit,
	}
}

func (c *Creator) WithLogger(log *slog.Logger) *Creator {
	c.log = log
	return c
}

// WithResolver swaps the version resolver, mostly for tests.
func (c *Creator) WithResolver(r *resolve.Resolver) *Creator {
	c.resolver = r
	return c
}

// WithConcurrency bounds the download fan-out.
func (c *Creator) WithConcurrency(limit int) *Creator {
	c.limit = limit
	return c
}

// WithDefaultRAM seeds new instance configs with a fixed allocation
// instead of deriving one from the machine's memory. Zero keeps the
// derived default.
func (c *Creator) WithDefaultRAM(mb int) *Creator {
	c.ramMB = mb
	return c
}

func (c *Creator) newConfig() Config {
	cfg := DefaultConfig()
	if c.ramMB > 0 {
		cfg.RAMInMB = c.ramMB
	}

	return cfg
}

// CreateOptions parameterizes one creation.
type CreateOptions struct {
	Name    string
	Version string

	// DownloadAssets can be disabled for servers and tests; the game
	// jar and libraries alone are enough to boot.
	DownloadAssets bool

	// Progress, when non-nil, receives best-effort pipeline reports.
	// Sends never block.
	Progress chan<- Progress
}

// Create builds a client instance from scratch. On failure the
// partially built directory is left in place for the caller to
// inspect or roll back.
func (c *Creator) Create(ctx context.Context, opts CreateOptions) error {
	if err := layout.SafeName(opts.Name); err != nil {
		return err
	}

	dir := c.layout.InstanceDir(opts.Name, false)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrInstanceExists, opts.Name)
	}

	report(opts.Progress, Progress{Stage: StageStarted})
	c.log.Info("creating instance",
		slog.String("name", opts.Name), slog.String("version", opts.Version))

	report(opts.Progress, Progress{Stage: StageManifest})
	desc, err := c.resolver.Resolve(ctx, opts.Version, false)
	if err != nil {
		return err
	}

	report(opts.Progress, Progress{Stage: StageVersionJSON})
	details, jarURL, err := c.versionDetails(ctx, desc)
	if err != nil {
		return err
	}

	gameDir := c.layout.GameDir(opts.Name, false)
	if err := os.MkdirAll(gameDir, 0755); err != nil {
		return err
	}

	if err := writeDetails(dir, details); err != nil {
		return err
	}

	dl := &downloader{fetcher: c.fetcher, layout: c.layout, log: c.log, limit: c.limit, ch: opts.Progress}

	if err := dl.loggingConfig(ctx, opts.Name, details); err != nil {
		return err
	}
	if err := dl.jar(ctx, opts.Name, details, false, jarURL); err != nil {
		return err
	}
	if err := dl.libraries(ctx, opts.Name, details, false); err != nil {
		return err
	}
	if opts.DownloadAssets {
		if err := dl.assets(ctx, details); err != nil {
			return err
		}
	}

	if err := writeLauncherProfiles(gameDir, opts.Name, details.ID); err != nil {
		return err
	}

	cfg := c.newConfig()
	if desc.Entry != nil {
		cfg.Archive = &ArchiveInfo{
			Name:     desc.Entry.Name,
			URL:      desc.Entry.URL,
			Category: desc.Entry.Category.String(),
		}
	}
	if err := cfg.Save(dir); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, VersionMarkerFileName), []byte(LauncherVersion), 0644); err != nil {
		return err
	}
	if err := os.MkdirAll(c.layout.ModsDir(opts.Name, false), 0755); err != nil {
		return err
	}

	c.log.Info("instance created", slog.String("name", opts.Name), slog.String("version", details.ID))
	return nil
}

// versionDetails fetches the document describing the resolved version.
// Archived builds reuse the catalog document of their closest official
// sibling but take the jar from the vault.
func (c *Creator) versionDetails(ctx context.Context, desc *resolve.Descriptor) (*mojang.VersionDetails, string, error) {
	if desc.Kind == resolve.KindVanilla {
		details, err := mojang.FetchVersionDetails(ctx, c.fetcher, desc.Manifest.URL)
		return details, "", err
	}

	manifest, err := c.manifest.Manifest(ctx)
	if err != nil {
		return nil, "", err
	}

	// The official catalog carries old_alpha and old_beta documents
	// under the same naming scheme the archive uses.
	v := manifest.Find(desc.ID)
	if v == nil {
		v = manifest.FindFuzzy(desc.ID, archivePrefix(desc.Entry.Category))
	}
	if v == nil {
		return nil, "", fmt.Errorf("no catalog document for archived version %s", desc.ID)
	}

	details, err := mojang.FetchVersionDetails(ctx, c.fetcher, v.URL)
	if err != nil {
		return nil, "", err
	}

	return details, desc.Entry.URL, nil
}

// archivePrefix maps an archive era to the catalog id prefix its
// versions use, so fuzzy lookups stay within the right era.
func archivePrefix(cat omniarchive.Category) string {
	switch cat {
	case omniarchive.PreClassic:
		return "rd-"
	case omniarchive.Classic:
		return "c0."
	case omniarchive.Indev:
		return "in-"
	case omniarchive.Infdev:
		return "inf-"
	case omniarchive.Alpha:
		return "a1."
	case omniarchive.Beta:
		return "b1."
	}

	return ""
}

func writeDetails(instanceDir string, details *mojang.VersionDetails) error {
	data, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(instanceDir, DetailsFileName), data, 0644)
}

// LoadDetails reads the stored version document of an instance.
func LoadDetails(instanceDir string) (*mojang.VersionDetails, error) {
	data, err := os.ReadFile(filepath.Join(instanceDir, DetailsFileName))
	if err != nil {
		return nil, err
	}

	return mojang.ParseVersionDetails(data)
}

// Delete removes an instance directory entirely.
func Delete(lay layout.Layout, name string, server bool) error {
	if err := layout.SafeName(name); err != nil {
		return err
	}

	return os.RemoveAll(lay.InstanceDir(name, server))
}

// List names the existing client or server instances.
func List(lay layout.Layout, server bool) ([]string, error) {
	dir := lay.InstancesDir()
	if server {
		dir = lay.ServersDir()
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	return names, nil
}
