package pipeline

import (
	"errors"
	"testing"

	"github.com/relabs-tech/fes_gait/internal/classify"
	"github.com/relabs-tech/fes_gait/internal/control"
	"github.com/relabs-tech/fes_gait/internal/emg"
	"github.com/relabs-tech/fes_gait/internal/features"
)

const rate = 250

// threshold returns a one-split tree over component idx of a 3-channel vector.
func threshold(idx int, at float64, below, above classify.ClassID) *classify.Tree {
	return classify.MustTree(3*features.PerChannel, []classify.Node{
		{Feature: idx, Threshold: at, Left: 1, Right: 2},
		classify.LeafNode(below),
		classify.LeafNode(above),
	})
}

// Mode follows the context RMS of the second channel, phase follows the
// short-window RMS of the first one.
func gaitModels() (mode, phase classify.Model) {
	mode = threshold(1*features.PerChannel+features.RMS, 0.01, classify.Sitting, classify.LevelWalking)
	phase = threshold(0*features.PerChannel+features.RMS, 0.05, classify.Stance, classify.Swing)
	return mode, phase
}

type countingModel struct {
	classify.Model
	calls int
}

func (m *countingModel) Classify(v features.Vector) classify.ClassID {
	m.calls++
	return m.Model.Classify(v)
}

func newGaitPipeline(t *testing.T) *Pipeline {
	t.Helper()
	mode, phase := gaitModels()
	p, err := New(DefaultSettings(), mode, phase)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWalkingProducesOneStimulationPerStride(t *testing.T) {
	p := newGaitPipeline(t)
	src := emg.NewMockSource(3, rate)

	var onsets, strikes []control.Transition
	var swingTicks, stimulatedSwingTicks int
	for i := 0; i < 16*rate; i++ {
		f, _ := src.Next()
		out, err := p.Tick(f)
		if err != nil {
			t.Fatal(err)
		}
		if out.TimeMs != int64(i)*1000/rate {
			t.Fatalf("tick %d: time=%d", i, out.TimeMs)
		}
		switch out.Transition.Kind {
		case control.SwingOnset:
			onsets = append(onsets, out.Transition)
		case control.HeelStrike:
			strikes = append(strikes, out.Transition)
		case control.SwingTimeout, control.SafetyReset:
			t.Fatalf("tick %d: unexpected %s", i, out.Transition.Kind)
		}

		// Mid-stance of every stride after the first must be quiet.
		ms := out.TimeMs
		if ms >= 5000 && (ms-emg.MockRestMs)%1000 >= 300 && (ms-emg.MockRestMs)%1000 <= 550 && out.Stimulating {
			t.Fatalf("t=%d ms: stimulating in mid-stance", ms)
		}
		if i >= 5*rate && emg.MockSwing(f.Seq, rate) {
			swingTicks++
			if out.Stimulating {
				stimulatedSwingTicks++
			}
		}
	}

	if len(onsets) != 12 || len(strikes) != 11 {
		t.Fatalf("got %d onsets and %d heel strikes over 12 strides", len(onsets), len(strikes))
	}
	if at := onsets[0].AtMs; at < 4600 || at > 4800 {
		t.Fatalf("first swing onset at %d ms, mock swing starts at 4600", at)
	}
	if at := strikes[0].AtMs; at < 5000 || at > 5300 {
		t.Fatalf("first heel strike at %d ms, mock swing ends at 5000", at)
	}
	if cov := float64(stimulatedSwingTicks) / float64(swingTicks); cov < 0.5 {
		t.Fatalf("stimulation covered %.2f of swing", cov)
	}
	s := p.State()
	if s.AvgSwingMs <= 400 || s.AvgSwingMs > 520 {
		t.Fatalf("avg swing %v did not move toward the observed swing length", s.AvgSwingMs)
	}
	if s.SwingCount != 11 || s.StanceCount != 12 {
		t.Fatalf("counters: swing=%d stance=%d", s.SwingCount, s.StanceCount)
	}
}

func TestInferenceWithheldUntilPrimed(t *testing.T) {
	p := newGaitPipeline(t)
	src := emg.NewMockSource(3, rate)
	for i := 0; i < 600; i++ {
		f, _ := src.Next()
		out, err := p.Tick(f)
		if err != nil {
			t.Fatal(err)
		}
		want := i >= 500 && i%25 == 0
		if out.Inferred != want {
			t.Fatalf("tick %d: inferred=%v want=%v", i, out.Inferred, want)
		}
		if i < 500 && (out.Stimulating || out.Phase != classify.Stance) {
			t.Fatalf("tick %d: output before priming %+v", i, out)
		}
	}
}

func TestStaticModeNeverCallsPhaseModel(t *testing.T) {
	_, phaseTree := gaitModels()
	phase := &countingModel{Model: phaseTree}
	sitting := threshold(0, 1e9, classify.Sitting, classify.Sitting)
	p, err := New(DefaultSettings(), sitting, phase)
	if err != nil {
		t.Fatal(err)
	}
	src := emg.NewMockSource(3, rate)
	for i := 0; i < 10*rate; i++ {
		f, _ := src.Next()
		out, err := p.Tick(f)
		if err != nil {
			t.Fatal(err)
		}
		if out.Stimulating {
			t.Fatalf("tick %d: stimulating while sitting", i)
		}
	}
	if phase.calls != 0 {
		t.Fatalf("phase model called %d times while sitting", phase.calls)
	}
}

func TestTickRejectsWrongChannelCount(t *testing.T) {
	p := newGaitPipeline(t)
	if _, err := p.Tick(emg.Frame{Channels: []float64{0, 0}}); err == nil {
		t.Fatal("expected error for 2-channel frame")
	}
	if st := p.Status(); st.Tick != 0 {
		t.Fatalf("rejected frame advanced the tick: %d", st.Tick)
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	mode, phase := gaitModels()

	s := DefaultSettings()
	s.Channels = 2
	if _, err := New(s, mode, phase); !errors.Is(err, classify.ErrDimension) {
		t.Fatalf("got=%v want ErrDimension", err)
	}

	cases := map[string]func(*Settings){
		"phase longer than context": func(s *Settings) { s.PhaseLen = 600 },
		"zero interval":             func(s *Settings) { s.InferenceInterval = 0 },
		"trigger channel":           func(s *Settings) { s.TriggerChannel = 3 },
		"smoothing":                 func(s *Settings) { s.Control.Smoothing = 1.5 },
	}
	for name, mutate := range cases {
		s := DefaultSettings()
		mutate(&s)
		if _, err := New(s, mode, phase); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestShippedTablesRun(t *testing.T) {
	p, err := New(DefaultSettings(), classify.DefaultModeModel(), classify.DefaultPhaseModel())
	if err != nil {
		t.Fatal(err)
	}
	src := emg.NewMockSource(3, rate)
	for i := 0; i < 8*rate; i++ {
		f, _ := src.Next()
		if _, err := p.Tick(f); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if st := p.Status(); !st.Primed || st.Tick != 8*rate {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestResetStartsNewSession(t *testing.T) {
	p := newGaitPipeline(t)
	src := emg.NewMockSource(3, rate)
	for i := 0; i < 7*rate; i++ {
		f, _ := src.Next()
		if _, err := p.Tick(f); err != nil {
			t.Fatal(err)
		}
	}
	if p.State().StanceCount == 0 {
		t.Fatal("walking did not produce any stride before reset")
	}

	p.Reset()
	st := p.Status()
	if st.Tick != 0 || st.Primed || st.Controller.StanceCount != 0 || st.Controller.AvgSwingMs != 400 {
		t.Fatalf("unexpected status after reset %+v", st)
	}
	out, err := p.Tick(emg.Frame{Channels: []float64{0, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Tick != 0 || out.TimeMs != 0 || out.Inferred {
		t.Fatalf("first tick after reset %+v", out)
	}
}
