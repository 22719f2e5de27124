package forge

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/pool"
)

// Installer downloads a Forge installer jar, extracts its profile and
// materializes the loader into an instance.
type Installer struct {
	fetcher *fetch.Fetcher
	layout  layout.Layout
	log     *slog.Logger
}

func NewInstaller(f *fetch.Fetcher, lay layout.Layout) *Installer {
	return &Installer{fetcher: f, layout: lay, log: slog.Default()}
}

func (in *Installer) WithLogger(log *slog.Logger) *Installer {
	in.log = log
	return in
}

// Install resolves the Forge build for the game version (unless one is
// given), pulls the installer jar and writes the normalized profile
// plus its libraries into the instance.
func (in *Installer) Install(ctx context.Context, instanceName, gameVersion, forgeVersion string) (*Profile, error) {
	if forgeVersion == "" {
		var promos Promotions
		if err := in.fetcher.JSON(ctx, PromotionsURL, &promos); err != nil {
			return nil, fmt.Errorf("forge promotions: %w", err)
		}
		forgeVersion = promos.Latest(gameVersion)
		if forgeVersion == "" {
			return nil, fmt.Errorf("forge does not support %s", gameVersion)
		}
	}

	in.log.Info("installing forge",
		slog.String("instance", instanceName),
		slog.String("game", gameVersion),
		slog.String("forge", forgeVersion))

	jar, err := in.fetcher.Bytes(ctx, InstallerURL(gameVersion, forgeVersion))
	if err != nil {
		return nil, fmt.Errorf("forge installer: %w", err)
	}

	profile, err := profileFromInstaller(jar)
	if err != nil {
		return nil, err
	}
	if profile.InheritsFrom == "" {
		profile.InheritsFrom = gameVersion
	}

	if err := in.downloadLibraries(ctx, instanceName, profile.Libraries); err != nil {
		return nil, err
	}

	if err := in.writeProfile(instanceName, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// Uninstall removes the Forge profile from the instance.
func (in *Installer) Uninstall(instanceName string) error {
	path := filepath.Join(in.layout.InstanceDir(instanceName, false), ProfileFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove forge profile: %w", err)
	}

	return nil
}

// LoadProfile reads an installed Forge profile, or nil when absent.
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
		return nil, fmt.Errorf("forge profile: %w", err)
	}

	return &profile, nil
}

// profileFromInstaller digs install_profile.json and, when present,
// version.json out of the installer jar.
func profileFromInstaller(jar []byte) (*Profile, error) {
	r, err := zip.NewReader(bytes.NewReader(jar), int64(len(jar)))
	if err != nil {
		return nil, fmt.Errorf("forge installer jar: %w", err)
	}

	installData, err := readZipFile(r, "install_profile.json")
	if err != nil {
		return nil, err
	}

	// Legacy installers have no version.json; that is fine.
	versionData, _ := readZipFile(r, "version.json")

	return ParseProfile(installData, versionData)
}

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		return io.ReadAll(rc)
	}

	return nil, fmt.Errorf("installer jar has no %s", name)
}

func (in *Installer) downloadLibraries(ctx context.Context, instanceName string, libs []mojang.Library) error {
	libDir := in.layout.LibrariesDir(instanceName, false)

	tasks := make([]func(context.Context) error, 0, len(libs))
	for _, lib := range libs {
		art := lib.Downloads.Artifact
		if art == nil || art.URL == "" {
			// Forge's own jar and a few BSL-era libraries ship inside
			// the installer rather than from a repository.
			continue
		}

		tasks = append(tasks, func(ctx context.Context) error {
			return in.fetcher.ToFileSHA1(ctx, art.URL, filepath.Join(libDir, filepath.FromSlash(art.Path)), art.SHA1)
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
