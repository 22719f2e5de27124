package mojang

import (
	"encoding/json"
	"fmt"
)

// AssetIndexRef is the pointer to an asset index inside a version
// document.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// AssetIndex maps virtual asset paths to content-addressed objects.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
}

// AssetObject is one entry in an asset index. Archived indexes carry a
// direct URL per object; official indexes address by hash only.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

// ResourcesBaseURL is where hash-addressed asset objects live.
const ResourcesBaseURL = "https://resources.download.minecraft.net"

// DownloadURL is the URL the object should be fetched from: the direct
// URL when the index provides one, the resources CDN otherwise.
func (o AssetObject) DownloadURL() string {
	if o.URL != "" {
		return o.URL
	}

	return fmt.Sprintf("%s/%s/%s", ResourcesBaseURL, o.Hash[:2], o.Hash)
}

func ParseAssetIndex(data []byte) (*AssetIndex, error) {
	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("asset index: %w", err)
	}
	if idx.Objects == nil {
		return nil, &SchemaError{Field: "objects"}
	}

	return &idx, nil
}
