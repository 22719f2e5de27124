package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/mem"
)

// ConfigFileName is the per-instance settings file at the instance
// root.
const ConfigFileName = "config.json"

// Mod loader identifiers stored in the config.
const (
	ModTypeVanilla = "Vanilla"
	ModTypeFabric  = "Fabric"
	ModTypeQuilt   = "Quilt"
	ModTypeForge   = "Forge"
)

// Config is the per-instance settings document.
type Config struct {
	ModType         string       `json:"mod_type"`
	JavaOverride    string       `json:"java_override,omitempty"`
	RAMInMB         int          `json:"ram_in_mb"`
	EnableLogger    *bool        `json:"enable_logger,omitempty"`
	JavaArgs        []string     `json:"java_args,omitempty"`
	GameArgs        []string     `json:"game_args,omitempty"`
	Archive         *ArchiveInfo `json:"omniarchive,omitempty"`
	IsClassicServer bool         `json:"is_classic_server,omitempty"`
}

// ArchiveInfo records where an archived instance's jar came from, so
// re-downloads and display names survive restarts.
type ArchiveInfo struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// DefaultConfig returns a fresh config with RAM sized for the machine.
func DefaultConfig() Config {
	return Config{
		ModType: ModTypeVanilla,
		RAMInMB: DefaultRAMMB(),
	}
}

// DefaultRAMMB picks an allocation of half the machine's memory,
// clamped to 2 to 8 GB. Without memory info it falls back to 2 GB.
func DefaultRAMMB() int {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 2048
	}

	half := int(vm.Total / (2 * 1024 * 1024))
	if half < 2048 {
		return 2048
	}
	if half > 8192 {
		return 8192
	}

	return half
}

// RAMArgument is the JVM heap flag for the configured allocation.
func (c Config) RAMArgument() string {
	return fmt.Sprintf("-Xmx%dM", c.RAMInMB)
}

// LoggerEnabled defaults to true when unset.
func (c Config) LoggerEnabled() bool {
	return c.EnableLogger == nil || *c.EnableLogger
}

// LoadConfig reads the config from an instance directory.
func LoadConfig(instanceDir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(instanceDir, ConfigFileName))
	if err != nil {
		return Config{}, err
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("instance config: %w", err)
	}

	return c, nil
}

// Save writes the config into an instance directory atomically.
func (c Config) Save(instanceDir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(instanceDir, ConfigFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
