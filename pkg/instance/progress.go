package instance

import "fmt"

// Stage is one phase of instance creation, in pipeline order.
type Stage int

const (
	StageStarted Stage = iota
	StageManifest
	StageVersionJSON
	StageLoggingConfig
	StageJar
	StageLibraries
	StageAssets
)

// Progress is a point-in-time report from the creation pipeline. Done
// and Total are only meaningful for the fan-out stages.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// Value maps the report onto a single monotonically increasing scale.
// The single-file stages get fixed points; libraries span one unit and
// assets eight, proportional to their share of wall time.
func (p Progress) Value() float64 {
	frac := 0.0
	if p.Total > 0 {
		frac = float64(p.Done) / float64(p.Total)
	}

	switch p.Stage {
	case StageManifest:
		return 0.1
	case StageVersionJSON:
		return 0.3
	case StageLoggingConfig:
		return 0.5
	case StageJar:
		return 0.7
	case StageLibraries:
		return 1.0 + frac
	case StageAssets:
		return 2.0 + 8.0*frac
	default:
		return 0
	}
}

// scale is the Value of a finished pipeline.
const scale = 10.0

// Percent is Value normalized to 0..100.
func (p Progress) Percent() float64 {
	return p.Value() / scale * 100
}

func (p Progress) String() string {
	switch p.Stage {
	case StageStarted:
		return "starting"
	case StageManifest:
		return "fetching version manifest"
	case StageVersionJSON:
		return "fetching version details"
	case StageLoggingConfig:
		return "downloading logging config"
	case StageJar:
		return "downloading game jar"
	case StageLibraries:
		return fmt.Sprintf("downloading libraries (%d/%d)", p.Done, p.Total)
	case StageAssets:
		return fmt.Sprintf("downloading assets (%d/%d)", p.Done, p.Total)
	default:
		return fmt.Sprintf("Stage(%d)", int(p.Stage))
	}
}

// report sends without blocking; a slow or absent consumer never
// stalls downloads.
func report(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}

	select {
	case ch <- p:
	default:
	}
}
