// Package launcher boots installed instances: it rebuilds the
// classpath from the stored version document, applies any mod loader
// profile and hands off to the configured java runtime.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cometmc/comet/pkg/auth"
	"github.com/cometmc/comet/pkg/fabric"
	"github.com/cometmc/comet/pkg/forge"
	"github.com/cometmc/comet/pkg/instance"
	"github.com/cometmc/comet/pkg/java"
	"github.com/cometmc/comet/pkg/layout"
	"github.com/cometmc/comet/pkg/mojang"
)

// LauncherBrand is reported to the game via the standard launcher
// placeholders.
const LauncherBrand = "comet"

type Launcher struct {
	layout   layout.Layout
	java     *java.Runtime
	javaPath string
	log      *slog.Logger
}

func New(lay layout.Layout, jre *java.Runtime) *Launcher {
	return &Launcher{layout: lay, java: jre, log: slog.Default()}
}

func (l *Launcher) WithLogger(log *slog.Logger) *Launcher {
	l.log = log
	return l
}

// WithJavaPath uses a fixed java binary for every instance that has no
// override of its own, instead of provisioning a runtime. Empty means
// no fixed binary.
func (l *Launcher) WithJavaPath(path string) *Launcher {
	l.javaPath = path
	return l
}

// Options parameterizes one launch.
type Options struct {
	Name     string
	Username string
	Server   bool
}

// Launch builds the command for an instance and runs it to completion,
// streaming the game's output to the launcher's stdio.
func (l *Launcher) Launch(ctx context.Context, opts Options) error {
	cmd, err := l.Command(ctx, opts)
	if err != nil {
		return err
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	l.log.Info("launching", slog.String("instance", opts.Name), slog.Bool("server", opts.Server))
	return cmd.Run()
}

// Command assembles the full java invocation for an instance without
// running it.
func (l *Launcher) Command(ctx context.Context, opts Options) (*exec.Cmd, error) {
	if err := layout.SafeName(opts.Name); err != nil {
		return nil, err
	}

	dir := l.layout.InstanceDir(opts.Name, opts.Server)
	cfg, err := instance.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", opts.Name, err)
	}

	if opts.Server {
		return l.serverCommand(ctx, opts.Name, cfg)
	}

	return l.clientCommand(ctx, opts, cfg)
}

func (l *Launcher) serverCommand(ctx context.Context, name string, cfg instance.Config) (*exec.Cmd, error) {
	dir := l.layout.GameDir(name, true)

	major := java.DefaultMajor
	if details, err := instance.LoadDetails(dir); err == nil && details.JavaVersion != nil {
		major = details.JavaVersion.MajorVersion
	}

	exe, err := l.javaExecutable(ctx, cfg, major)
	if err != nil {
		return nil, err
	}

	args := []string{cfg.RAMArgument()}
	args = append(args, cfg.JavaArgs...)
	args = append(args, "-jar", "server.jar", "nogui")
	args = append(args, cfg.GameArgs...)

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	return cmd, nil
}

func (l *Launcher) clientCommand(ctx context.Context, opts Options, cfg instance.Config) (*exec.Cmd, error) {
	dir := l.layout.InstanceDir(opts.Name, false)
	gameDir := l.layout.GameDir(opts.Name, false)

	details, err := instance.LoadDetails(dir)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", opts.Name, err)
	}

	major := java.DefaultMajor
	if details.JavaVersion != nil {
		major = details.JavaVersion.MajorVersion
	}
	exe, err := l.javaExecutable(ctx, cfg, major)
	if err != nil {
		return nil, err
	}

	mainClass := details.MainClass
	var loaderLibs []string
	var loaderJVMArgs, loaderGameArgs []string

	switch cfg.ModType {
	case instance.ModTypeFabric, instance.ModTypeQuilt:
		profile, err := fabric.LoadProfile(dir)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, fmt.Errorf("instance %s: config says %s but no loader profile found", opts.Name, cfg.ModType)
		}
		mainClass = profile.MainClass
		loaderJVMArgs = profile.Arguments.JVM
		loaderGameArgs = profile.Arguments.Game
		for _, lib := range profile.Libraries {
			path, err := lib.Path()
			if err != nil {
				return nil, err
			}
			loaderLibs = append(loaderLibs,
				filepath.Join(l.layout.LibrariesDir(opts.Name, false), filepath.FromSlash(path)))
		}
	case instance.ModTypeForge:
		profile, err := forge.LoadProfile(dir)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, fmt.Errorf("instance %s: config says Forge but no loader profile found", opts.Name)
		}
		mainClass = profile.MainClass
		loaderGameArgs = profile.GameArguments()
		for _, lib := range profile.Libraries {
			if art := lib.Downloads.Artifact; art != nil && art.Path != "" {
				loaderLibs = append(loaderLibs,
					filepath.Join(l.layout.LibrariesDir(opts.Name, false), filepath.FromSlash(art.Path)))
			}
		}
	}

	classpath := l.classpath(opts.Name, details, loaderLibs)
	vars := l.placeholders(opts, cfg, details, classpath)

	args := l.jvmArgs(opts.Name, cfg, details, classpath, vars)
	for _, a := range loaderJVMArgs {
		args = append(args, substitute(a, vars))
	}
	args = append(args, mainClass)
	args = append(args, l.gameArgs(cfg, details, vars)...)
	for _, a := range loaderGameArgs {
		args = append(args, substitute(a, vars))
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = gameDir
	return cmd, nil
}

func (l *Launcher) javaExecutable(ctx context.Context, cfg instance.Config, major int) (string, error) {
	if cfg.JavaOverride != "" {
		return cfg.JavaOverride, nil
	}
	if l.javaPath != "" {
		return l.javaPath, nil
	}

	return l.java.Ensure(ctx, major)
}

// classpath joins the client jar, every platform-allowed library and
// the loader's libraries. The same applicability rules used at
// download time decide membership here, so the two never diverge.
func (l *Launcher) classpath(name string, details *mojang.VersionDetails, loaderLibs []string) string {
	osName, arch := mojang.OSName(), mojang.ArchName()
	libDir := l.layout.LibrariesDir(name, false)

	elements := []string{filepath.Join(l.layout.GameDir(name, false), "client.jar")}
	for _, lib := range details.Libraries {
		if !lib.Allowed(osName, arch) {
			continue
		}
		if art := lib.Downloads.Artifact; art != nil && art.Path != "" {
			elements = append(elements, filepath.Join(libDir, filepath.FromSlash(art.Path)))
		}
	}
	elements = append(elements, loaderLibs...)

	return strings.Join(elements, string(os.PathListSeparator))
}

func (l *Launcher) jvmArgs(name string, cfg instance.Config, details *mojang.VersionDetails, classpath string, vars map[string]string) []string {
	nativesDir := l.layout.NativesDir(name, false)

	args := []string{
		cfg.RAMArgument(),
		"-Djava.library.path=" + nativesDir,
		"-Dorg.lwjgl.system.SharedLibraryExtractPath=" + nativesDir,
		"-Djna.tmpdir=" + nativesDir,
		"-Dminecraft.launcher.brand=" + LauncherBrand,
		"-Dminecraft.launcher.version=" + instance.LauncherVersion,
	}

	if runtime.GOOS == "darwin" {
		args = append(args, "-XstartOnFirstThread")
	}

	if cfg.LoggerEnabled() && details.Logging != nil && details.Logging.Client != nil {
		configPath := filepath.Join(l.layout.InstanceDir(name, false), "logging-"+details.Logging.Client.File.ID)
		if _, err := os.Stat(configPath); err == nil {
			args = append(args, strings.ReplaceAll(details.Logging.Client.Argument, "${path}", configPath))
		}
	}

	args = append(args, cfg.JavaArgs...)

	// Modern documents carry their own jvm argument list; old ones
	// predate it and just need the classpath.
	if details.Arguments != nil && len(details.Arguments.JVM) > 0 {
		for _, a := range details.Arguments.JVM {
			if s, ok := a.(string); ok {
				args = append(args, substitute(s, vars))
			}
		}
	} else {
		args = append(args, "-cp", classpath)
	}

	return args
}

func (l *Launcher) gameArgs(cfg instance.Config, details *mojang.VersionDetails, vars map[string]string) []string {
	var args []string

	switch {
	case details.Arguments != nil:
		for _, a := range details.Arguments.Game {
			if s, ok := a.(string); ok {
				args = append(args, substitute(s, vars))
			}
		}
	case details.MinecraftArguments != "":
		for _, s := range strings.Fields(details.MinecraftArguments) {
			args = append(args, substitute(s, vars))
		}
	}

	return append(args, cfg.GameArgs...)
}

func (l *Launcher) placeholders(opts Options, cfg instance.Config, details *mojang.VersionDetails, classpath string) map[string]string {
	username, uuid := auth.NewOfflineAuth(opts.Username).GetAuthData()

	assetIndex := details.Assets
	if details.AssetIndex != nil {
		assetIndex = details.AssetIndex.ID
	}

	gameDir := l.layout.GameDir(opts.Name, false)

	return map[string]string{
		"auth_player_name":  username,
		"auth_uuid":         uuid,
		"auth_access_token": "0",
		"auth_session":      "0",
		"user_type":         "legacy",
		"user_properties":   "{}",
		"version_name":      details.ID,
		"version_type":      details.Type,
		"game_directory":    gameDir,
		"assets_root":       l.layout.AssetIndexDir(assetIndex),
		"assets_index_name": assetIndex,
		"game_assets":       l.layout.LegacyAssetsDir(),
		"classpath":         classpath,
		"natives_directory": l.layout.NativesDir(opts.Name, false),
		"launcher_name":     LauncherBrand,
		"launcher_version":  instance.LauncherVersion,
	}
}

func substitute(arg string, vars map[string]string) string {
	for key, value := range vars {
		arg = strings.ReplaceAll(arg, "${"+key+"}", value)
	}

	return arg
}
