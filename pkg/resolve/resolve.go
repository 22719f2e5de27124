// Package resolve turns a user-supplied version token into a concrete
// download source. Tokens either name an official catalog version
// exactly or carry an era prefix that routes them to the archive,
// where close-enough spellings are accepted.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/omniarchive"
)

var (
	// ErrVersionNotFound means the token matched nothing in either
	// catalog.
	ErrVersionNotFound = errors.New("version not found")

	// ErrClassicZipIsServerOnly is returned when a client instance is
	// requested for an artifact that only exists as a classic server
	// zip bundle.
	ErrClassicZipIsServerOnly = errors.New("classic zip bundles are server-only")
)

// Kind says where the resolved version comes from.
type Kind int

const (
	// KindVanilla is an official catalog version.
	KindVanilla Kind = iota
	// KindArchived is a community-archived jar.
	KindArchived
	// KindArchivedClassicServerZip is a classic-era server distributed
	// as a zip bundle rather than a bare jar.
	KindArchivedClassicServerZip
)

// Descriptor is a resolved version. Exactly one of Manifest and Entry
// is set, matching Kind.
type Descriptor struct {
	Kind     Kind
	ID       string
	Manifest *mojang.ManifestVersion
	Entry    *omniarchive.Entry
}

// ManifestSource provides the official version catalog.
type ManifestSource interface {
	Manifest(ctx context.Context) (*mojang.Manifest, error)
}

// ArchiveIndex lists archived artifacts per era.
type ArchiveIndex interface {
	Index(ctx context.Context, cat omniarchive.Category, server bool) ([]omniarchive.Entry, error)
}

type Resolver struct {
	manifest ManifestSource
	archive  ArchiveIndex
	log      *slog.Logger
}

func New(manifest ManifestSource, archive ArchiveIndex) *Resolver {
	return &Resolver{manifest: manifest, archive: archive, log: slog.Default()}
}

func (r *Resolver) WithLogger(log *slog.Logger) *Resolver {
	r.log = log
	return r
}

// eraPrefixes classifies tokens into archive eras by their historical
// naming convention.
var eraPrefixes = []struct {
	prefix   string
	category omniarchive.Category
}{
	{"rd-", omniarchive.PreClassic},
	{"c0.", omniarchive.Classic},
	{"in-", omniarchive.Indev},
	{"inf-", omniarchive.Infdev},
	{"a1.", omniarchive.Alpha},
	{"b1.", omniarchive.Beta},
}

func classify(token string) (omniarchive.Category, bool) {
	for _, e := range eraPrefixes {
		if strings.HasPrefix(token, e.prefix) {
			return e.category, true
		}
	}

	return 0, false
}

// Resolve maps a version token to its download source. Catalog tokens
// must match exactly; only era-prefixed archive tokens get fuzzy
// matching, inside their era. Anything else fails rather than guessing
// at a nearby catalog version.
func (r *Resolver) Resolve(ctx context.Context, token string, server bool) (*Descriptor, error) {
	manifest, err := r.manifest.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	if v := manifest.Find(token); v != nil {
		return &Descriptor{Kind: KindVanilla, ID: v.ID, Manifest: v}, nil
	}

	if cat, ok := classify(token); ok {
		return r.resolveArchived(ctx, token, cat, server)
	}

	return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, token)
}

func (r *Resolver) resolveArchived(ctx context.Context, token string, cat omniarchive.Category, server bool) (*Descriptor, error) {
	if server && !cat.HasServer() {
		return nil, fmt.Errorf("%w: no %s servers exist", ErrVersionNotFound, cat)
	}

	entries, err := r.archive.Index(ctx, cat, server)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, token)
	}

	best := entries[0]
	bestDist := levenshtein.ComputeDistance(token, best.Name)
	for _, e := range entries[1:] {
		if d := levenshtein.ComputeDistance(token, e.Name); d < bestDist {
			best, bestDist = e, d
		}
	}

	if best.Name != token {
		r.log.Warn("archived version matched fuzzily",
			slog.String("token", token), slog.String("resolved", best.Name))
	}

	if strings.HasSuffix(best.URL, ".zip") {
		if !server {
			return nil, fmt.Errorf("%w: %s", ErrClassicZipIsServerOnly, best.Name)
		}
		return &Descriptor{Kind: KindArchivedClassicServerZip, ID: best.Name, Entry: &best}, nil
	}

	return &Descriptor{Kind: KindArchived, ID: best.Name, Entry: &best}, nil
}
