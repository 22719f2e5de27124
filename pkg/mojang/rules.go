package mojang

import "runtime"

// Rule guards a library or argument by OS and launcher features. Rules
// are evaluated in order and the last matching rule decides; an empty
// rule list allows unconditionally.
type Rule struct {
	Action   string          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

type OSRule struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

const (
	ActionAllow    = "allow"
	ActionDisallow = "disallow"
)

// OSName maps GOOS to the name the version documents use.
func OSName() string {
	switch runtime.GOOS {
	case "darwin":
		return "osx"
	default:
		return runtime.GOOS
	}
}

// ArchName maps GOARCH to the arch the version documents use. The only
// arch the documents ever name is 32-bit x86.
func ArchName() string {
	switch runtime.GOARCH {
	case "386":
		return "x86"
	default:
		return runtime.GOARCH
	}
}

// matches reports whether the rule applies on the given platform. A
// rule with no OS constraint matches everywhere. Feature-guarded rules
// never match; the features they gate (demo mode, custom resolution)
// are not offered.
func (r *Rule) matches(osName, arch string) bool {
	if len(r.Features) > 0 {
		return false
	}
	if r.OS == nil {
		return true
	}
	if r.OS.Name != "" && r.OS.Name != osName {
		return false
	}
	if r.OS.Arch != "" && r.OS.Arch != arch {
		return false
	}

	return true
}

// Allowed evaluates the library's rules for the given platform. With
// no rules the library is allowed; otherwise the decision is the action
// of the last rule that matches, defaulting to disallowed when none do.
func (l *Library) Allowed(osName, arch string) bool {
	if len(l.Rules) == 0 {
		return true
	}

	allowed := false
	for i := range l.Rules {
		if l.Rules[i].matches(osName, arch) {
			allowed = l.Rules[i].Action == ActionAllow
		}
	}

	return allowed
}

// NativeClassifier returns the natives classifier key for the given OS,
// with the ${arch} template resolved, or "" when the library has no
// natives for that OS.
func (l *Library) NativeClassifier(osName string) string {
	key, ok := l.Natives[osName]
	if !ok {
		return ""
	}

	// A handful of old documents template the pointer width in.
	if key == "natives-windows-${arch}" {
		return "natives-windows-64"
	}

	return key
}
