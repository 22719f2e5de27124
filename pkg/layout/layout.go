// Package layout maps launcher and instance identities to canonical
// filesystem paths. It performs no I/O itself.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout is rooted at the launcher directory and derives every other
// path from it. Clients keep their game files under
// <instance>/.minecraft, servers use the instance root directly.
// Assets are shared across all instances.
type Layout struct {
	Root string
}

// DefaultRoot returns the launcher directory inside the user config dir,
// e.g. ~/.config/Comet on Linux.
func DefaultRoot() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "Comet"), nil
}

func (l Layout) InstancesDir() string {
	return filepath.Join(l.Root, "instances")
}

func (l Layout) ServersDir() string {
	return filepath.Join(l.Root, "servers")
}

// InstanceDir returns the root directory of a named client or server
// instance.
func (l Layout) InstanceDir(name string, server bool) string {
	if server {
		return filepath.Join(l.ServersDir(), name)
	}

	return filepath.Join(l.InstancesDir(), name)
}

// GameDir is where the game itself reads and writes: the .minecraft
// subdirectory for clients, the instance root for servers.
func (l Layout) GameDir(name string, server bool) string {
	dir := l.InstanceDir(name, server)
	if server {
		return dir
	}

	return filepath.Join(dir, ".minecraft")
}

func (l Layout) LibrariesDir(name string, server bool) string {
	return filepath.Join(l.GameDir(name, server), "libraries")
}

func (l Layout) NativesDir(name string, server bool) string {
	return filepath.Join(l.LibrariesDir(name, server), "natives")
}

func (l Layout) ModsDir(name string, server bool) string {
	return filepath.Join(l.GameDir(name, server), "mods")
}

// AssetsDir is shared by every instance, keyed by asset index id below it.
func (l Layout) AssetsDir() string {
	return filepath.Join(l.Root, "assets")
}

func (l Layout) AssetIndexDir(indexID string) string {
	return filepath.Join(l.AssetsDir(), indexID)
}

// AssetIndexPath is where the game expects the index document itself:
// <assets>/<index>/indexes/<index>.json, relative to the assets root it
// is handed at launch.
func (l Layout) AssetIndexPath(indexID string) string {
	return filepath.Join(l.AssetIndexDir(indexID), "indexes", indexID+".json")
}

// LegacyAssetsDir holds assets materialized under their logical names.
// Pre-1.7 clients read assets by name instead of by hash, so the hash
// store alone does not serve them.
func (l Layout) LegacyAssetsDir() string {
	return filepath.Join(l.AssetsDir(), "legacy")
}

// AssetObjectPath returns the content-addressed location of one asset:
// <assets>/<index>/objects/<hash[0:2]>/<hash>.
func (l Layout) AssetObjectPath(indexID, hash string) string {
	return filepath.Join(l.AssetIndexDir(indexID), "objects", hash[:2], hash)
}

// SafeName rejects instance names that would resolve outside their
// parent category directory after a path join. Names come from user
// input, so this is load-bearing.
func SafeName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name is empty")
	}

	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return fmt.Errorf("instance name %q contains path separators", name)
	}

	parent := string(os.PathSeparator) + "parent"
	joined := filepath.Join(parent, name)
	rel, err := filepath.Rel(parent, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || rel == "." {
		return fmt.Errorf("instance name %q escapes its parent directory", name)
	}

	return nil
}
