package random

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func drawGeneral(s *State, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.General().Float64()
	}
	return out
}

func drawNumeric(s *State, n int) []float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: s.Source()}
	out := make([]float64, n)
	for i := range out {
		out[i] = norm.Rand()
	}
	return out
}

func equalSeq(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEqualSeedsProduceIdenticalSequences(t *testing.T) {
	a := NewStates()
	b := NewStates()

	for _, phase := range []Phase{PhaseFit, PhaseTransform, PhaseReverseTransform} {
		if !equalSeq(drawGeneral(a.For(phase), 20), drawGeneral(b.For(phase), 20)) {
			t.Errorf("phase %s: general streams diverged", phase)
		}
		if !equalSeq(drawNumeric(a.For(phase), 20), drawNumeric(b.For(phase), 20)) {
			t.Errorf("phase %s: numeric streams diverged", phase)
		}
	}
}

func TestPhasesAreIsolated(t *testing.T) {
	a := NewStates()
	b := NewStates()

	// Drain the transform phase of a heavily; the fit phase must not notice.
	drawGeneral(a.For(PhaseTransform), 1000)
	drawNumeric(a.For(PhaseTransform), 1000)

	if !equalSeq(drawGeneral(a.For(PhaseFit), 20), drawGeneral(b.For(PhaseFit), 20)) {
		t.Error("draining transform perturbed the fit general stream")
	}
	if !equalSeq(drawGeneral(a.For(PhaseReverseTransform), 20), drawGeneral(b.For(PhaseReverseTransform), 20)) {
		t.Error("draining transform perturbed the reverse general stream")
	}
}

func TestPhasesHaveDistinctStreams(t *testing.T) {
	st := NewStates()
	fit := drawGeneral(st.For(PhaseFit), 10)
	tr := drawGeneral(st.For(PhaseTransform), 10)
	rev := drawGeneral(st.For(PhaseReverseTransform), 10)

	if equalSeq(fit, tr) || equalSeq(tr, rev) || equalSeq(fit, rev) {
		t.Error("distinct phases produced identical sequences")
	}
}

func TestResetRestartsSequences(t *testing.T) {
	st := NewStates()
	first := drawGeneral(st.For(PhaseTransform), 15)
	firstNumeric := drawNumeric(st.For(PhaseTransform), 15)

	st.Reset()

	if !equalSeq(first, drawGeneral(st.For(PhaseTransform), 15)) {
		t.Error("general stream did not restart after Reset")
	}
	if !equalSeq(firstNumeric, drawNumeric(st.For(PhaseTransform), 15)) {
		t.Error("numeric stream did not restart after Reset")
	}
}

func TestGlobalGeneratorIndependence(t *testing.T) {
	a := NewStates()
	b := NewStates()

	seqA := drawGeneral(a.For(PhaseFit), 5)
	// Hammer the process-global math/rand generator between the two runs.
	for i := 0; i < 10000; i++ {
		rand.Float64()
	}
	seqB := drawGeneral(b.For(PhaseFit), 5)

	if !equalSeq(seqA, seqB) {
		t.Error("owned streams were affected by the global generator")
	}
}

func TestGobRoundTripResumesMidStream(t *testing.T) {
	st := NewStates()
	// Advance every stream so serialization must capture a mid-sequence
	// position, not just the seed.
	for _, phase := range []Phase{PhaseFit, PhaseTransform, PhaseReverseTransform} {
		drawGeneral(st.For(phase), 7)
		drawNumeric(st.For(phase), 7)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		t.Fatalf("encode: %v", err)
	}

	expected := make(map[Phase][]float64)
	expectedNumeric := make(map[Phase][]float64)
	// Values the original will produce next.
	snapshot := buf.Bytes()

	loaded := &States{}
	if err := gob.NewDecoder(bytes.NewReader(snapshot)).Decode(loaded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, phase := range []Phase{PhaseFit, PhaseTransform, PhaseReverseTransform} {
		expected[phase] = drawGeneral(st.For(phase), 10)
		expectedNumeric[phase] = drawNumeric(st.For(phase), 10)
	}

	for _, phase := range []Phase{PhaseFit, PhaseTransform, PhaseReverseTransform} {
		if !equalSeq(expected[phase], drawGeneral(loaded.For(phase), 10)) {
			t.Errorf("phase %s: general stream did not resume mid-sequence", phase)
		}
		if !equalSeq(expectedNumeric[phase], drawNumeric(loaded.For(phase), 10)) {
			t.Errorf("phase %s: numeric stream did not resume mid-sequence", phase)
		}
	}
}

func TestNewStatesSeedKeepsPhaseOffsets(t *testing.T) {
	st := NewStatesSeed(1000)

	g, n := st.For(PhaseFit).Seeds()
	if g != 1000 || n != 1000 {
		t.Errorf("fit seeds = (%d, %d)", g, n)
	}
	g, n = st.For(PhaseTransform).Seeds()
	if g != 1059 || n != 1059 {
		t.Errorf("transform seeds = (%d, %d)", g, n)
	}
	g, n = st.For(PhaseReverseTransform).Seeds()
	if g != 1109 || n != 1110 {
		t.Errorf("reverse seeds = (%d, %d)", g, n)
	}
}

func TestReaderIsDeterministic(t *testing.T) {
	a := NewState(7, 7)
	b := NewState(7, 7)

	bufA := make([]byte, 16)
	bufB := make([]byte, 16)
	if _, err := a.Reader().Read(bufA); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := b.Reader().Read(bufB); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(bufA, bufB) {
		t.Error("equal-seeded readers produced different bytes")
	}
}
