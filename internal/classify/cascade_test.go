package classify

import (
	"errors"
	"testing"

	"github.com/relabs-tech/fes_gait/internal/features"
)

type fixedModel struct {
	dim   int
	class ClassID
	calls int
	last  features.Vector
}

func (m *fixedModel) Dimension() int { return m.dim }

func (m *fixedModel) Classify(v features.Vector) ClassID {
	m.calls++
	m.last = append(m.last[:0], v...)
	return m.class
}

func primedWindow(channels, capacity int) *features.Window {
	w := features.NewWindow(channels, capacity)
	for i := 0; i < capacity; i++ {
		row := make([]float64, channels)
		for ch := range row {
			row[ch] = float64(i%5) * 0.1
		}
		w.Push(row)
	}
	return w
}

func TestCascadeSkipsPhaseForStaticModes(t *testing.T) {
	for _, mode := range []ClassID{Sitting, Standing} {
		m := &fixedModel{dim: 6, class: mode}
		p := &fixedModel{dim: 6, class: Swing}
		c, err := NewCascade(m, p, CascadeConfig{Channels: 2, ContextLen: 20, PhaseLen: 5})
		if err != nil {
			t.Fatal(err)
		}
		res, err := c.Evaluate(primedWindow(2, 20))
		if err != nil {
			t.Fatal(err)
		}
		if res.Phase != Stance || res.PhaseEvaluated || p.calls != 0 {
			t.Fatalf("%s: phase=%s evaluated=%v calls=%d, want stance without calling the phase model",
				ModeName(mode), PhaseName(res.Phase), res.PhaseEvaluated, p.calls)
		}
	}
}

func TestCascadeRunsPhaseOnShortWindow(t *testing.T) {
	m := &fixedModel{dim: 3, class: LevelWalking}
	p := &fixedModel{dim: 3, class: Swing}
	c, err := NewCascade(m, p, CascadeConfig{Channels: 1, ContextLen: 20, PhaseLen: 5})
	if err != nil {
		t.Fatal(err)
	}
	w := primedWindow(1, 20)
	res, err := c.Evaluate(w)
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != LevelWalking || res.Phase != Swing || !res.PhaseEvaluated {
		t.Fatalf("unexpected result %+v", res)
	}

	wantCtx, wantPhase := features.NewVector(1), features.NewVector(1)
	_ = features.Extract(w, 20, wantCtx)
	_ = features.Extract(w, 5, wantPhase)
	if m.last.WL(0) != wantCtx.WL(0) || p.last.WL(0) != wantPhase.WL(0) {
		t.Fatalf("window lengths not honoured: mode WL=%v want %v, phase WL=%v want %v",
			m.last.WL(0), wantCtx.WL(0), p.last.WL(0), wantPhase.WL(0))
	}
	if res.Context.RMS(0) != wantCtx.RMS(0) {
		t.Fatalf("context vector not exposed: got=%v want=%v", res.Context.RMS(0), wantCtx.RMS(0))
	}
}

func TestCascadeDimensionMismatch(t *testing.T) {
	_, err := NewCascade(DefaultModeModel(), DefaultPhaseModel(), CascadeConfig{Channels: 2, ContextLen: 500, PhaseLen: 50})
	if !errors.Is(err, ErrDimension) {
		t.Fatalf("got=%v want ErrDimension", err)
	}
	if _, err := NewCascade(DefaultModeModel(), DefaultPhaseModel(), CascadeConfig{Channels: 3, ContextLen: 500, PhaseLen: 50}); err != nil {
		t.Fatalf("shipped tables with 3 channels: %v", err)
	}
}

func TestCascadeWithholdsUntilPrimed(t *testing.T) {
	c, err := NewCascade(&fixedModel{dim: 3}, &fixedModel{dim: 3}, CascadeConfig{Channels: 1, ContextLen: 20, PhaseLen: 5})
	if err != nil {
		t.Fatal(err)
	}
	w := features.NewWindow(1, 20)
	w.Push([]float64{1})
	if _, err := c.Evaluate(w); !errors.Is(err, features.ErrInsufficientHistory) {
		t.Fatalf("got=%v want ErrInsufficientHistory", err)
	}
}
