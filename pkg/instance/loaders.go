package instance

import (
	"context"
	"fmt"

	"github.com/cometmc/comet/pkg/fabric"
	"github.com/cometmc/comet/pkg/forge"
)

// InstallLoader installs a mod loader into a client instance and
// records it in the config. loader is one of the ModType constants.
func (c *Creator) InstallLoader(ctx context.Context, name, loader, loaderVersion string) error {
	dir := c.layout.InstanceDir(name, false)
	cfg, err := LoadConfig(dir)
	if err != nil {
		return err
	}
	if cfg.ModType != ModTypeVanilla {
		return fmt.Errorf("instance %s already has %s installed", name, cfg.ModType)
	}

	details, err := LoadDetails(dir)
	if err != nil {
		return err
	}

	switch loader {
	case ModTypeFabric:
		in := fabric.NewInstaller(c.fetcher, c.layout).WithLogger(c.log)
		if _, err := in.Install(ctx, name, details.ID, loaderVersion); err != nil {
			return err
		}
	case ModTypeQuilt:
		in := fabric.NewInstaller(c.fetcher, c.layout).WithLogger(c.log).WithQuilt()
		if _, err := in.Install(ctx, name, details.ID, loaderVersion); err != nil {
			return err
		}
	case ModTypeForge:
		in := forge.NewInstaller(c.fetcher, c.layout).WithLogger(c.log)
		if _, err := in.Install(ctx, name, details.ID, loaderVersion); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown loader %q", loader)
	}

	cfg.ModType = loader
	return cfg.Save(dir)
}

// UninstallLoader removes whatever loader the instance has and resets
// it to vanilla.
func (c *Creator) UninstallLoader(_ context.Context, name string) error {
	dir := c.layout.InstanceDir(name, false)
	cfg, err := LoadConfig(dir)
	if err != nil {
		return err
	}

	switch cfg.ModType {
	case ModTypeVanilla:
		return nil
	case ModTypeFabric, ModTypeQuilt:
		if err := fabric.NewInstaller(c.fetcher, c.layout).Uninstall(name); err != nil {
			return err
		}
	case ModTypeForge:
		if err := forge.NewInstaller(c.fetcher, c.layout).Uninstall(name); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown loader %q in config", cfg.ModType)
	}

	cfg.ModType = ModTypeVanilla
	return cfg.Save(dir)
}
