// Package mojang holds the upstream metadata schemas: the version
// manifest, the per-version details document, asset indexes and the
// library applicability rules. Everything here is parsing and pure
// computation; the network side lives in pkg/fetch.
package mojang

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/cometmc/comet/pkg/fetch"
)

// ManifestURL is the canonical version catalog.
const ManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

type Manifest struct {
	Latest   Latest            `json:"latest"`
	Versions []ManifestVersion `json:"versions"`
}

type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

type ManifestVersion struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
	SHA1        string `json:"sha1"`
}

// FetchManifest downloads and parses the version manifest.
func FetchManifest(ctx context.Context, f *fetch.Fetcher) (*Manifest, error) {
	var m Manifest
	if err := f.JSON(ctx, ManifestURL, &m); err != nil {
		return nil, fmt.Errorf("version manifest: %w", err)
	}

	return &m, nil
}

// Find returns the catalog entry with the exact id, or nil.
func (m *Manifest) Find(id string) *ManifestVersion {
	for i := range m.Versions {
		if m.Versions[i].ID == id {
			return &m.Versions[i]
		}
	}

	return nil
}

// FindFuzzy returns the catalog entry whose id is closest to name by
// edit distance, restricted to ids starting with prefix (pass "" for
// no restriction). Ties keep the earlier catalog entry, which is the
// newer version. Returns nil if no entry matches the prefix.
func (m *Manifest) FindFuzzy(name, prefix string) *ManifestVersion {
	var (
		best     *ManifestVersion
		bestDist int
	)
	for i := range m.Versions {
		v := &m.Versions[i]
		if prefix != "" && !strings.HasPrefix(v.ID, prefix) {
			continue
		}

		dist := levenshtein.ComputeDistance(name, v.ID)
		if best == nil || dist < bestDist {
			best = v
			bestDist = dist
		}
	}

	return best
}
