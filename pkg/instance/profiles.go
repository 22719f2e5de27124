package instance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ProfilesFileName is the launcher_profiles.json written into the game
// directory. The game never reads it, but third-party mod installers
// refuse to run without one.
const ProfilesFileName = "launcher_profiles.json"

type launcherProfiles struct {
	Profiles        map[string]launcherProfile `json:"profiles"`
	SelectedProfile string                     `json:"selectedProfile"`
	ClientToken     string                     `json:"clientToken"`
}

type launcherProfile struct {
	Name          string `json:"name"`
	LastVersionID string `json:"lastVersionId"`
	Created       string `json:"created"`
	Type          string `json:"type"`
}

// writeLauncherProfiles materializes a minimal profiles file for the
// given game directory and version.
func writeLauncherProfiles(gameDir, name, versionID string) error {
	doc := launcherProfiles{
		Profiles: map[string]launcherProfile{
			"default": {
				Name:          name,
				LastVersionID: versionID,
				Created:       time.Now().UTC().Format(time.RFC3339),
				Type:          "custom",
			},
		},
		SelectedProfile: "default",
		ClientToken:     uuid.NewString(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(gameDir, ProfilesFileName), data, 0644)
}
