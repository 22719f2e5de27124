// Package forge installs the Forge loader. Forge ships an installer
// jar rather than a meta API; the launch profile and library list are
// read out of the jar itself.
package forge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cometmc/comet/pkg/mojang"
)

const (
	// PromotionsURL lists the recommended and latest Forge build per
	// game version.
	PromotionsURL = "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json"

	// MavenBaseURL is the Forge artifact repository.
	MavenBaseURL = "https://maven.minecraftforge.net"
)

// ProfileFileName is where the Forge launch profile is stored inside
// an instance directory.
const ProfileFileName = "forge.json"

type Promotions struct {
	Homepage string            `json:"homepage"`
	Promos   map[string]string `json:"promos"`
}

// Latest returns the build to install for a game version, preferring
// the recommended promotion over the latest one. Empty when Forge does
// not support the version.
func (p *Promotions) Latest(gameVersion string) string {
	if v, ok := p.Promos[gameVersion+"-recommended"]; ok {
		return v
	}

	return p.Promos[gameVersion+"-latest"]
}

// InstallerURL is where the installer jar for a game/build pair lives.
func InstallerURL(gameVersion, forgeVersion string) string {
	full := gameVersion + "-" + forgeVersion
	return fmt.Sprintf("%s/net/minecraftforge/forge/%s/forge-%s-installer.jar",
		MavenBaseURL, full, full)
}

// Profile is the Forge launch profile, normalized across the modern
// (separate version.json) and legacy (versionInfo inside the install
// profile) installer layouts.
type Profile struct {
	ID                 string            `json:"id"`
	InheritsFrom       string            `json:"inheritsFrom"`
	MainClass          string            `json:"mainClass"`
	Arguments          *mojang.Arguments `json:"arguments,omitempty"`
	MinecraftArguments string            `json:"minecraftArguments,omitempty"`
	Libraries          []mojang.Library  `json:"libraries"`
}

// installProfile is the raw install_profile.json. Modern installers
// reference a sibling version.json; legacy ones inline a versionInfo.
type installProfile struct {
	JSON        string   `json:"json,omitempty"`
	VersionInfo *Profile `json:"versionInfo,omitempty"`
	Install     *struct {
		MinecraftVersion string `json:"minecraft"`
	} `json:"install,omitempty"`
}

// ParseProfile normalizes an installer's metadata into a Profile.
// installProfileData is install_profile.json; versionData is
// version.json when the installer carries one, nil otherwise.
func ParseProfile(installProfileData, versionData []byte) (*Profile, error) {
	var ip installProfile
	if err := json.Unmarshal(installProfileData, &ip); err != nil {
		return nil, fmt.Errorf("install profile: %w", err)
	}

	if ip.VersionInfo != nil {
		p := ip.VersionInfo
		if ip.Install != nil && p.InheritsFrom == "" {
			p.InheritsFrom = ip.Install.MinecraftVersion
		}
		return p, nil
	}

	if versionData == nil {
		return nil, fmt.Errorf("install profile has no versionInfo and no version.json")
	}

	var p Profile
	if err := json.Unmarshal(versionData, &p); err != nil {
		return nil, fmt.Errorf("forge version document: %w", err)
	}

	return &p, nil
}

// GameArguments returns the profile's game arguments as a flat list,
// translating the legacy space-separated template when the structured
// form is absent. Rule-guarded argument objects are skipped, same as
// in vanilla launch.
func (p *Profile) GameArguments() []string {
	if p.Arguments != nil {
		var args []string
		for _, a := range p.Arguments.Game {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
		return args
	}

	return strings.Fields(p.MinecraftArguments)
}
