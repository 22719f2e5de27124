// Package natives substitutes ARM-capable builds for libraries whose
// official natives only ship for x86-64. The replacement catalog is
// embedded; entries are keyed by the full maven coordinate of the
// library they replace.
package natives

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
)

//go:embed catalog/*.json
var catalogFS embed.FS

// Patch is a drop-in replacement artifact for one library.
type Patch struct {
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
}

// prefixes are the library groups the catalog covers; anything else
// can skip the lookup entirely.
var prefixes = []string{
	"org.lwjgl",
	"org.apache.logging.log4j",
	"com.github.oshi",
	"ca.weblite",
	"org.slf4j",
}

var catalog = mustLoadCatalog()

func mustLoadCatalog() map[string]Patch {
	merged := make(map[string]Patch)

	entries, err := fs.Glob(catalogFS, "catalog/*.json")
	if err != nil {
		panic(fmt.Sprintf("natives catalog: %v", err))
	}
	for _, name := range entries {
		data, err := catalogFS.ReadFile(name)
		if err != nil {
			panic(fmt.Sprintf("natives catalog %s: %v", name, err))
		}

		var part map[string]Patch
		if err := json.Unmarshal(data, &part); err != nil {
			panic(fmt.Sprintf("natives catalog %s: %v", name, err))
		}
		for k, v := range part {
			merged[k] = v
		}
	}

	return merged
}

// Applies reports whether the running platform needs ARM substitution
// at all.
func Applies() bool {
	return runtime.GOARCH == "arm64" || runtime.GOARCH == "arm"
}

// Covered reports whether the library's group is one the catalog knows
// about.
func Covered(libraryName string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(libraryName, p) {
			return true
		}
	}

	return false
}

// PatchFor returns the replacement artifact for the given library
// coordinate, if the catalog has one. Callers gate on Applies; the
// lookup itself is platform-independent so it can be tested anywhere.
func PatchFor(libraryName string) (Patch, bool) {
	if !Covered(libraryName) {
		return Patch{}, false
	}

	p, ok := catalog[libraryName]
	return p, ok
}
