package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/pool"
)

// Installer fetches loader profiles from the meta API and materializes
// them into an instance: the profile document next to the instance
// config, the loader libraries into the shared libraries dir.
type Installer struct {
	fetcher *fetch.Fetcher
	layout  layout.Layout
	log     *slog.Logger
	baseURL string
}

func NewInstaller(f *fetch.Fetcher, lay layout.Layout) *Installer {
	return &Installer{
		fetcher: f,
		layout:  lay,
		log:     slog.Default(),
		baseURL: MetaBaseURL,
	}
}

func (in *Installer) WithLogger(log *slog.Logger) *Installer {
	in.log = log
	return in
}

// WithQuilt retargets the installer at the Quilt meta API.
func (in *Installer) WithQuilt() *Installer {
	in.baseURL = QuiltMetaBaseURL
	return in
}

// Versions lists the loader versions available for a game version,
// newest first.
func (in *Installer) Versions(ctx context.Context, gameVersion string) ([]LoaderVersion, error) {
	var versions []LoaderVersion
	url := fmt.Sprintf("%s/versions/loader/%s", in.baseURL, gameVersion)
	if err := in.fetcher.JSON(ctx, url, &versions); err != nil {
		return nil, fmt.Errorf("loader versions for %s: %w", gameVersion, err)
	}

	return versions, nil
}

// Install fetches the profile for the game/loader pair, writes it into
// the instance directory and downloads the loader libraries. An empty
// loaderVersion means the latest stable one.
func (in *Installer) Install(ctx context.Context, instanceName, gameVersion, loaderVersion string) (*Profile, error) {
	if loaderVersion == "" {
		versions, err := in.Versions(ctx, gameVersion)
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			if v.Loader.Stable {
				loaderVersion = v.Loader.Version
				break
			}
		}
		if loaderVersion == "" && len(versions) > 0 {
			loaderVersion = versions[0].Loader.Version
		}
		if loaderVersion == "" {
			return nil, fmt.Errorf("no loader versions for %s", gameVersion)
		}
	}

	var profile Profile
	url := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", in.baseURL, gameVersion, loaderVersion)
	if err := in.fetcher.JSON(ctx, url, &profile); err != nil {
		return nil, fmt.Errorf("loader profile %s/%s: %w", gameVersion, loaderVersion, err)
	}

	in.log.Info("installing loader",
		slog.String("instance", instanceName),
		slog.String("game", gameVersion),
		slog.String("loader", loaderVersion))

	if err := in.downloadLibraries(ctx, instanceName, profile.Libraries); err != nil {
		return nil, err
	}

	if err := in.writeProfile(instanceName, &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// Uninstall removes the loader profile from the instance. Loader
// libraries stay in the shared libraries dir; they are harmless and
// another instance may use them.
func (in *Installer) Uninstall(instanceName string) error {
	path := filepath.Join(in.layout.InstanceDir(instanceName, false), ProfileFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove loader profile: %w", err)
	}

	return nil
}

// LoadProfile reads an installed profile back, or returns nil if the
// instance is vanilla.
func LoadProfile(instanceDir string) (*Profile, error) {
	data, err := os.ReadFile(filepath.Join(instanceDir, ProfileFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("loader profile: %w", err)
	}

	return &profile, nil
}

func (in *Installer) downloadLibraries(ctx context.Context, instanceName string, libs []Library) error {
	libDir := in.layout.LibrariesDir(instanceName, false)

	tasks := make([]func(context.Context) error, 0, len(libs))
	for _, lib := range libs {
		tasks = append(tasks, func(ctx context.Context) error {
			path, err := lib.Path()
			if err != nil {
				return err
			}
			url, err := lib.DownloadURL()
			if err != nil {
				return err
			}

			return in.fetcher.ToFileSHA1(ctx, url, filepath.Join(libDir, filepath.FromSlash(path)), lib.SHA1)
		})
	}

	return pool.Run(ctx, pool.DefaultLimit, tasks)
}

func (in *Installer) writeProfile(instanceName string, profile *Profile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(in.layout.InstanceDir(instanceName, false), ProfileFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
