package instance

import "testing"

func TestProgressValueFixedPoints(t *testing.T) {
	cases := []struct {
		p    Progress
		want float64
	}{
		{Progress{Stage: StageStarted}, 0},
		{Progress{Stage: StageManifest}, 0.1},
		{Progress{Stage: StageVersionJSON}, 0.3},
		{Progress{Stage: StageLoggingConfig}, 0.5},
		{Progress{Stage: StageJar}, 0.7},
		{Progress{Stage: StageLibraries, Done: 0, Total: 10}, 1.0},
		{Progress{Stage: StageLibraries, Done: 10, Total: 10}, 2.0},
		{Progress{Stage: StageAssets, Done: 0, Total: 4}, 2.0},
		{Progress{Stage: StageAssets, Done: 4, Total: 4}, 10.0},
	}

	for _, tc := range cases {
		if got := tc.p.Value(); got != tc.want {
			t.Errorf("%v Value = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestProgressValueMonotonic(t *testing.T) {
	sequence := []Progress{
		{Stage: StageStarted},
		{Stage: StageManifest},
		{Stage: StageVersionJSON},
		{Stage: StageLoggingConfig},
		{Stage: StageJar},
		{Stage: StageLibraries, Done: 0, Total: 3},
		{Stage: StageLibraries, Done: 2, Total: 3},
		{Stage: StageLibraries, Done: 3, Total: 3},
		{Stage: StageAssets, Done: 1, Total: 100},
		{Stage: StageAssets, Done: 100, Total: 100},
	}

	prev := -1.0
	for _, p := range sequence {
		v := p.Value()
		if v < prev {
			t.Fatalf("%v regressed: %v after %v", p, v, prev)
		}
		prev = v
	}

	if sequence[len(sequence)-1].Percent() != 100 {
		t.Error("a finished pipeline should be at 100 percent")
	}
}

func TestProgressZeroTotal(t *testing.T) {
	p := Progress{Stage: StageLibraries, Done: 0, Total: 0}
	if got := p.Value(); got != 1.0 {
		t.Errorf("zero-total Value = %v, want 1.0", got)
	}
}

func TestReportNeverBlocks(t *testing.T) {
	ch := make(chan Progress, 1)
	for range 10 {
		report(ch, Progress{Stage: StageJar})
	}

	report(nil, Progress{Stage: StageJar})
}
