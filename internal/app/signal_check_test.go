package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/relabs-tech/fes_gait/internal/dsp"
	"github.com/relabs-tech/fes_gait/internal/emg"
	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

func TestCheckSignalsSeesTheSwingBurst(t *testing.T) {
	names := []string{"TA", "MG", "RF"}
	src := &limitSource{Source: emg.NewMockSource(3, 250), n: 8 * 250}
	stats, err := checkSignals(src, names, dsp.NewBank(3, dsp.DefaultBandpass, dsp.DefaultNotch), 10_000)
	if err != nil {
		t.Fatal(err)
	}
	ta, mg := stats[0], stats[1]
	if ta.Name != "TA" || ta.Max < 0.25 || ta.Min > -0.25 {
		t.Fatalf("TA range: %+v", ta)
	}
	if ta.FilteredRMS <= mg.FilteredRMS {
		t.Fatalf("TA burst should dominate: TA=%v MG=%v", ta.FilteredRMS, mg.FilteredRMS)
	}
}

func TestCheckSignalsEmptySource(t *testing.T) {
	src := &limitSource{Source: emg.NewMockSource(1, 250), n: 0}
	if _, err := checkSignals(src, []string{"TA"}, dsp.NewBank(1, dsp.DefaultBandpass, dsp.DefaultNotch), 10); err == nil {
		t.Fatal("expected error for an empty source")
	}
}

func TestPrintPublisherPrintsChanges(t *testing.T) {
	var buf bytes.Buffer
	p := &printPublisher{w: &buf, topicTrans: "tr", topicStat: "st"}
	_ = p.Publish("st", telemetry.Status{Primed: true, Mode: "sitting"})
	_ = p.Publish("st", telemetry.Status{Primed: true, Mode: "sitting"})
	_ = p.Publish("tr", telemetry.TransitionEvent{Kind: "swing_onset"})
	_ = p.Publish("features", telemetry.FeatureFrame{})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "swing_onset") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
