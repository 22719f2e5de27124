// Package fabric installs the Fabric and Quilt loaders. Both expose
// the same meta API shape, so one client serves the two with different
// base URLs.
package fabric

import (
	"fmt"
	"strings"
)

const (
	// MetaBaseURL is the Fabric meta API.
	MetaBaseURL = "https://meta.fabricmc.net/v2"
	// QuiltMetaBaseURL is the Quilt meta API, same shape one major up.
	QuiltMetaBaseURL = "https://meta.quiltmc.org/v3"
)

// ProfileFileName is where the loader profile is stored inside an
// instance directory.
const ProfileFileName = "fabric.json"

// LoaderVersion is one entry of the per-game-version loader list.
type LoaderVersion struct {
	Loader struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"loader"`
}

// Profile is the launch profile the meta API produces for a given game
// and loader version pair. It layers on top of the vanilla version
// document: extra libraries plus a replacement main class.
type Profile struct {
	ID           string    `json:"id"`
	InheritsFrom string    `json:"inheritsFrom"`
	MainClass    string    `json:"mainClass"`
	Arguments    Arguments `json:"arguments"`
	Libraries    []Library `json:"libraries"`
}

type Arguments struct {
	Game []string `json:"game"`
	JVM  []string `json:"jvm"`
}

type Library struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Path maps the library's maven coordinate to its repository-relative
// path: group/artifact/version/artifact-version[-classifier].jar.
func (l Library) Path() (string, error) {
	parts := strings.Split(l.Name, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return "", fmt.Errorf("bad maven coordinate %q", l.Name)
	}

	group := strings.ReplaceAll(parts[0], ".", "/")
	artifact, version := parts[1], parts[2]

	file := artifact + "-" + version
	if len(parts) == 4 {
		file += "-" + parts[3]
	}
	file += ".jar"

	return group + "/" + artifact + "/" + version + "/" + file, nil
}

// DownloadURL joins the library's repository base with its maven path.
func (l Library) DownloadURL() (string, error) {
	path, err := l.Path()
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(l.URL, "/") + "/" + path, nil
}
