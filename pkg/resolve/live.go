package resolve

import (
	"context"
	"sync"

	"github.com/cometmc/comet/pkg/fetch"
	"github.com/cometmc/comet/pkg/mojang"
	"github.com/cometmc/comet/pkg/omniarchive"
)

// ManifestCache fetches the official catalog once and serves it from
// memory afterwards. Creation hits the manifest several times (resolve,
// then archived version lookups); one network round trip is enough.
type ManifestCache struct {
	fetcher *fetch.Fetcher

	mu     sync.Mutex
	cached *mojang.Manifest
}

func NewManifestCache(f *fetch.Fetcher) *ManifestCache {
	return &ManifestCache{fetcher: f}
}

func (m *ManifestCache) Manifest(ctx context.Context) (*mojang.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return m.cached, nil
	}

	manifest, err := mojang.FetchManifest(ctx, m.fetcher)
	if err != nil {
		return nil, err
	}

	m.cached = manifest
	return manifest, nil
}

type liveArchive struct {
	client *omniarchive.Client
}

func (a liveArchive) Index(ctx context.Context, cat omniarchive.Category, server bool) ([]omniarchive.Entry, error) {
	return a.client.Index(ctx, cat, server)
}

// NewLive wires a resolver to the real catalog and archive endpoints,
// sharing the given manifest cache.
func NewLive(f *fetch.Fetcher, manifest *ManifestCache) *Resolver {
	return New(manifest, liveArchive{client: omniarchive.NewClient(f)})
}
