package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/resolve"
)

// ErrNoServerDownload means the version predates standalone server
// distribution or simply never had one.
var ErrNoServerDownload = errors.New("version has no server download")

// CreateServer builds a server instance. Servers skip assets and
// client libraries; the jar plus an accepted eula is a bootable
// server.
func (c *Creator) CreateServer(ctx context.Context, opts CreateOptions) error {
	if err := layout.SafeName(opts.Name); err != nil {
		return err
	}

	dir := c.layout.InstanceDir(opts.Name, true)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrInstanceExists, opts.Name)
	}

	report(opts.Progress, Progress{Stage: StageStarted})
	c.log.Info("creating server",
		slog.String("name", opts.Name), slog.String("version", opts.Version))

	report(opts.Progress, Progress{Stage: StageManifest})
	desc, err := c.resolver.Resolve(ctx, opts.Version, true)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
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

	switch desc.Kind {
	case resolve.KindVanilla:
		if err := c.vanillaServerJar(ctx, opts, desc, dir); err != nil {
			return err
		}
	case resolve.KindArchived:
		report(opts.Progress, Progress{Stage: StageJar})
		if err := c.fetcher.ToFile(ctx, desc.Entry.URL, filepath.Join(dir, "server.jar")); err != nil {
			return err
		}
	case resolve.KindArchivedClassicServerZip:
		if err := c.classicServerZip(ctx, opts, desc, dir); err != nil {
			return err
		}
		cfg.IsClassicServer = true
	}

	// Nobody runs a server without accepting the eula first; spare the
	// user the failed first boot.
	if err := os.WriteFile(filepath.Join(dir, "eula.txt"), []byte("eula=true\n"), 0644); err != nil {
		return err
	}

	if err := cfg.Save(dir); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, VersionMarkerFileName), []byte(LauncherVersion), 0644); err != nil {
		return err
	}

	c.log.Info("server created", slog.String("name", opts.Name))
	return nil
}

func (c *Creator) vanillaServerJar(ctx context.Context, opts CreateOptions, desc *resolve.Descriptor, dir string) error {
	report(opts.Progress, Progress{Stage: StageVersionJSON})
	details, _, err := c.versionDetails(ctx, desc)
	if err != nil {
		return err
	}
	if details.Downloads.Server == nil {
		return fmt.Errorf("%w: %s", ErrNoServerDownload, details.ID)
	}

	if err := writeDetails(dir, details); err != nil {
		return err
	}

	report(opts.Progress, Progress{Stage: StageJar})
	srv := details.Downloads.Server
	return c.fetcher.ToFileSHA1(ctx, srv.URL, filepath.Join(dir, "server.jar"), srv.SHA1)
}

// classicServerZip unpacks a classic-era server bundle and normalizes
// the jar name.
func (c *Creator) classicServerZip(ctx context.Context, opts CreateOptions, desc *resolve.Descriptor, dir string) error {
	report(opts.Progress, Progress{Stage: StageJar})
	data, err := c.fetcher.Bytes(ctx, desc.Entry.URL)
	if err != nil {
		return err
	}

	if err := fetch.ExtractZip(data, dir, true); err != nil {
		return err
	}

	old := filepath.Join(dir, "minecraft-server.jar")
	if _, err := os.Stat(old); err == nil {
		return os.Rename(old, filepath.Join(dir, "server.jar"))
	}

	return nil
}
