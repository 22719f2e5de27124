package mojang

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cometmc/comet/pkg/fetch"
)

// SchemaError reports a version document that parsed as JSON but is
// missing a field the pipeline cannot proceed without. The field name
// goes into the error so failures against odd archived documents are
// diagnosable.
type SchemaError struct {
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("version document: missing required field %q", e.Field)
}

// VersionDetails is the per-version document the manifest points at.
// It serves both the modern (arguments) and legacy (minecraftArguments)
// schema generations; absent fields stay zero.
type VersionDetails struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	MainClass   string `json:"mainClass"`
	Assets      string `json:"assets,omitempty"`
	ReleaseTime string `json:"releaseTime,omitempty"`
	Time        string `json:"time,omitempty"`

	// Post-1.13 versions carry structured arguments, older ones a
	// single space-separated template string. Exactly one is set.
	Arguments          *Arguments `json:"arguments,omitempty"`
	MinecraftArguments string     `json:"minecraftArguments,omitempty"`

	AssetIndex  *AssetIndexRef `json:"assetIndex,omitempty"`
	Downloads   Downloads      `json:"downloads"`
	JavaVersion *JavaVersion   `json:"javaVersion,omitempty"`
	Libraries   []Library      `json:"libraries"`
	Logging     *Logging       `json:"logging,omitempty"`

	MinimumLauncherVersion int `json:"minimumLauncherVersion,omitempty"`
}

// Arguments entries are either plain strings or rule-guarded objects,
// hence the []any. The launcher only substitutes into the plain ones.
type Arguments struct {
	Game []any `json:"game"`
	JVM  []any `json:"jvm"`
}

type Downloads struct {
	Client *DownloadEntry `json:"client,omitempty"`
	Server *DownloadEntry `json:"server,omitempty"`
}

type DownloadEntry struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

type Library struct {
	Name      string           `json:"name"`
	Downloads LibraryDownloads `json:"downloads"`

	// Old-style natives libraries: classifier key per OS plus an
	// extraction exclude list.
	Natives map[string]string `json:"natives,omitempty"`
	Extract *Extract          `json:"extract,omitempty"`

	Rules []Rule `json:"rules,omitempty"`
}

type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

type Artifact struct {
	Path string `json:"path"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

type Logging struct {
	Client *LoggingClient `json:"client,omitempty"`
}

type LoggingClient struct {
	Argument string      `json:"argument"`
	File     LoggingFile `json:"file"`
	Type     string      `json:"type"`
}

type LoggingFile struct {
	ID   string `json:"id"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// ParseVersionDetails decodes a version document and validates the
// fields everything downstream assumes are present.
func ParseVersionDetails(data []byte) (*VersionDetails, error) {
	var v VersionDetails
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("version document: %w", err)
	}

	if v.ID == "" {
		return nil, &SchemaError{Field: "id"}
	}
	if v.MainClass == "" {
		return nil, &SchemaError{Field: "mainClass"}
	}

	return &v, nil
}

// FetchVersionDetails downloads and validates the version document at
// url (usually a manifest entry's URL).
func FetchVersionDetails(ctx context.Context, f *fetch.Fetcher, url string) (*VersionDetails, error) {
	data, err := f.Bytes(ctx, url)
	if err != nil {
		return nil, err
	}

	return ParseVersionDetails(data)
}
