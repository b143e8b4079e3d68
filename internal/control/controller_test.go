package control

import (
	"math"
	"testing"

	"github.com/relabs-tech/fes_gait/internal/classify"
)

const (
	walk   = classify.LevelWalking
	sit    = classify.Sitting
	stance = classify.Stance
	swing  = classify.Swing
	strong = 0.5 // well above the trigger threshold
)

// enterSwing drives a fresh controller into Swing at t ms.
func enterSwing(t *testing.T, c *Controller, at int64) {
	t.Helper()
	tr := c.Update(walk, swing, strong, at)
	if tr.Kind != SwingOnset {
		t.Fatalf("expected swing onset at %d, got %s (state %+v)", at, tr.Kind, c.Snapshot())
	}
}

func TestInitialState(t *testing.T) {
	s := New(DefaultParams()).Snapshot()
	if s.Phase != stance || s.Stimulating || s.AvgSwingMs != 400 || s.AvgStanceMs != 600 {
		t.Fatalf("unexpected initial state %+v", s)
	}
}

func TestSwingOnsetRequiresAllThreeConditions(t *testing.T) {
	cases := []struct {
		name  string
		phase classify.ClassID
		aux   float64
		at    int64
		want  TransitionKind
	}{
		{"model says stance", stance, strong, 500, NoTransition},
		{"weak emg", swing, 0.01, 500, NoTransition},
		{"aux at threshold", swing, 0.02, 500, NoTransition},
		{"too soon", swing, strong, 120, NoTransition}, // dwell must exceed 0.2*600
		{"all agree", swing, strong, 121, SwingOnset},
	}
	for _, tc := range cases {
		c := New(DefaultParams())
		tr := c.Update(walk, tc.phase, tc.aux, tc.at)
		if tr.Kind != tc.want {
			t.Fatalf("%s: got=%s want=%s", tc.name, tr.Kind, tc.want)
		}
		if got := c.Stimulating(); got != (tc.want == SwingOnset) {
			t.Fatalf("%s: stimulating=%v", tc.name, got)
		}
	}
}

func TestSwingOnsetUpdatesStanceAverage(t *testing.T) {
	c := New(DefaultParams())
	tr := c.Update(walk, swing, strong, 700)
	if tr.Kind != SwingOnset || tr.EndedPhaseMs != 700 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	s := c.Snapshot()
	if want := 0.9*600 + 0.1*700; math.Abs(s.AvgStanceMs-want) > 1e-9 {
		t.Fatalf("avg stance: got=%v want=%v", s.AvgStanceMs, want)
	}
	if s.Phase != swing || s.LastTransitionMs != 700 || s.StanceCount != 1 {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestNoSpuriousSwing(t *testing.T) {
	c := New(DefaultParams())
	for now := int64(0); now < 60_000; now += 100 {
		if tr := c.Update(walk, swing, 0.019, now); tr.Changed() {
			t.Fatalf("t=%d: transitioned with sub-threshold EMG: %+v", now, tr)
		}
	}
	if s := c.Snapshot(); s.Phase != stance || s.Stimulating {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestHeelStrikeUpdatesSwingAverage(t *testing.T) {
	c := New(DefaultParams())
	enterSwing(t, c, 700)
	if tr := c.Update(walk, classify.NoPhase, 0, 900); tr.Changed() {
		t.Fatalf("'none' phase must keep swing, got %+v", tr)
	}
	tr := c.Update(walk, stance, 0, 1050)
	if tr.Kind != HeelStrike || tr.EndedPhaseMs != 350 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	s := c.Snapshot()
	if want := 0.9*400 + 0.1*350; math.Abs(s.AvgSwingMs-want) > 1e-9 {
		t.Fatalf("avg swing: got=%v want=%v", s.AvgSwingMs, want)
	}
	if s.Stimulating || s.Phase != stance || s.SwingCount != 1 {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestSwingTimeoutCeiling(t *testing.T) {
	const t0 = 1000
	c := New(DefaultParams())
	enterSwing(t, c, t0)
	if tr := c.Update(walk, swing, strong, t0+1200); tr.Changed() {
		t.Fatalf("timeout fired at exactly the ceiling: %+v", tr)
	}
	tr := c.Update(walk, swing, strong, t0+1201)
	if tr.Kind != SwingTimeout {
		t.Fatalf("got=%s want=swing_timeout", tr.Kind)
	}
	if c.Stimulating() {
		t.Fatal("stimulation still on after timeout")
	}
}

func TestSafetyGateIdempotent(t *testing.T) {
	c := New(DefaultParams())
	enterSwing(t, c, 500)
	tr := c.Update(sit, swing, strong, 600)
	if tr.Kind != SafetyReset || tr.EndedPhaseMs != 100 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	avgSwing := c.Snapshot().AvgSwingMs
	for i, mode := range []classify.ClassID{sit, sit, classify.Standing, sit} {
		now := int64(700 + 100*i)
		if tr := c.Update(mode, swing, strong, now); tr.Changed() {
			t.Fatalf("repeat %d: unexpected transition %+v", i, tr)
		}
		s := c.Snapshot()
		if s.Phase != stance || s.Stimulating {
			t.Fatalf("repeat %d: state %+v", i, s)
		}
		if s.LastTransitionMs != now {
			t.Fatalf("repeat %d: stance clock not re-anchored: %d", i, s.LastTransitionMs)
		}
	}
	if c.Snapshot().AvgSwingMs != avgSwing || avgSwing != 400 {
		t.Fatalf("interrupted swing leaked into the average: %v", c.Snapshot().AvgSwingMs)
	}
}

func TestResumeAfterSittingStartsClean(t *testing.T) {
	c := New(DefaultParams())
	for now := int64(0); now <= 30_000; now += 100 {
		c.Update(sit, stance, 0, now)
	}
	// Immediately after standing up the dwell guard still applies.
	if tr := c.Update(walk, swing, strong, 30_100); tr.Changed() {
		t.Fatalf("swing right after sitting: %+v", tr)
	}
	tr := c.Update(walk, swing, strong, 30_200)
	if tr.Kind != SwingOnset || tr.EndedPhaseMs != 200 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if avg := c.Snapshot().AvgStanceMs; avg > 600 {
		t.Fatalf("time spent sitting reached the stance average: %v", avg)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	c := New(DefaultParams())
	enterSwing(t, c, 900)
	c.Reset(5000)
	s := c.Snapshot()
	if s.Phase != stance || s.Stimulating || s.LastTransitionMs != 5000 || s.AvgStanceMs != 600 || s.StanceCount != 0 {
		t.Fatalf("unexpected state after reset %+v", s)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	p := DefaultParams()
	p.Smoothing = 1
	if p.Validate() == nil {
		t.Fatal("smoothing 1 never adapts and must be rejected")
	}
	p = DefaultParams()
	p.SwingTimeoutMs = 0
	if p.Validate() == nil {
		t.Fatal("zero timeout must be rejected")
	}
}
