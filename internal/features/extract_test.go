package features

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// direct computes the features of xs (chronological) the slow way, using
// prev as the sample preceding xs[0] when hasPrev is set.
func direct(xs []float64, prev float64, hasPrev bool) (mav, rms, wl float64) {
	p := math.Abs(xs[0])
	if hasPrev {
		p = math.Abs(prev)
	}
	for _, x := range xs {
		mav += math.Abs(x)
		rms += x * x
		wl += math.Abs(math.Abs(x) - p)
		p = math.Abs(x)
	}
	n := float64(len(xs))
	return mav / n, math.Sqrt(rms / n), wl
}

func TestWindowRingSemantics(t *testing.T) {
	w := NewWindow(1, 4)
	for i := 1; i <= 6; i++ {
		w.Push([]float64{float64(i)})
	}
	if w.Len() != 4 || !w.Primed() {
		t.Fatalf("len=%d primed=%v, want 4/true", w.Len(), w.Primed())
	}
	for back, want := range []float64{6, 5, 4, 3} {
		if got := w.At(0, back); got != want {
			t.Fatalf("At(0,%d): got=%v want=%v", back, got, want)
		}
	}
	w.Reset()
	if w.Len() != 0 || w.Written() != 0 || w.Primed() {
		t.Fatalf("reset did not rewind: len=%d written=%d", w.Len(), w.Written())
	}
}

func TestExtractMatchesDirectComputation(t *testing.T) {
	const capacity = 40
	rng := rand.New(rand.NewSource(1))
	w := NewWindow(2, capacity)
	var history [2][]float64
	for i := 0; i < 97; i++ {
		a, b := rng.NormFloat64(), rng.NormFloat64()*3
		history[0] = append(history[0], a)
		history[1] = append(history[1], b)
		w.Push([]float64{a, b})
	}

	for _, n := range []int{1, capacity / 2, capacity} {
		dst := NewVector(2)
		if err := Extract(w, n, dst); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for ch := 0; ch < 2; ch++ {
			h := history[ch]
			xs := h[len(h)-n:]
			prev := h[len(h)-n-1]
			mav, rms, wl := direct(xs, prev, n < capacity)
			if math.Abs(dst.MAV(ch)-mav) > 1e-9 || math.Abs(dst.RMS(ch)-rms) > 1e-9 || math.Abs(dst.WL(ch)-wl) > 1e-9 {
				t.Fatalf("n=%d ch=%d: got=(%v,%v,%v) want=(%v,%v,%v)",
					n, ch, dst.MAV(ch), dst.RMS(ch), dst.WL(ch), mav, rms, wl)
			}
		}
	}
}

func TestExtractClampsToCapacity(t *testing.T) {
	w := NewWindow(1, 10)
	for i := 0; i < 25; i++ {
		w.Push([]float64{float64(i % 7)})
	}
	a, b := NewVector(1), NewVector(1)
	if err := Extract(w, 10, a); err != nil {
		t.Fatal(err)
	}
	if err := Extract(w, 500, b); err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d: clamped=%v capacity=%v", i, b[i], a[i])
		}
	}
}

func TestExtractRefusesShortHistory(t *testing.T) {
	w := NewWindow(1, 50)
	for i := 0; i < 20; i++ {
		w.Push([]float64{1})
	}
	err := Extract(w, 50, NewVector(1))
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if err := Extract(w, 20, NewVector(1)); err != nil {
		t.Fatalf("20 of 20 samples should be allowed: %v", err)
	}
}

func TestExtractRejectsWrongVectorSize(t *testing.T) {
	w := NewWindow(3, 5)
	for i := 0; i < 5; i++ {
		w.Push([]float64{1, 2, 3})
	}
	if err := Extract(w, 5, NewVector(2)); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestWaveformLengthIsExtensive(t *testing.T) {
	const capacity = 4000
	rng := rand.New(rand.NewSource(42))
	w := NewWindow(1, capacity)
	for i := 0; i < capacity+10; i++ {
		w.Push([]float64{rng.NormFloat64()})
	}
	short, long := NewVector(1), NewVector(1)
	if err := Extract(w, 1000, short); err != nil {
		t.Fatal(err)
	}
	if err := Extract(w, 2000, long); err != nil {
		t.Fatal(err)
	}
	ratio := long.WL(0) / short.WL(0)
	if ratio < 1.8 || ratio > 2.2 {
		t.Fatalf("WL(2L)/WL(L) = %v, want about 2", ratio)
	}
	// MAV is intensive: roughly unchanged.
	if r := long.MAV(0) / short.MAV(0); r < 0.9 || r > 1.1 {
		t.Fatalf("MAV(2L)/MAV(L) = %v, want about 1", r)
	}
}
