// Package random provides the per-phase random streams used by the
// transformer lifecycle. Every transformer instance owns one stream pair per
// lifecycle phase (fit, transform, reverse transform), so repeated calls on
// equal-seeded instances reproduce exactly, independent of the process-global
// generators and of every other instance.
//
// Each phase pairs two generators: a general-purpose stream (math/rand/v2
// over a PCG source) and a numeric stream (x/exp/rand over a PCG source, the
// source type consumed by gonum's stat/distuv distributions). Both sources
// serialize their exact position, so a saved transformer resumes its streams
// where it left off.
package random

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	randv2 "math/rand/v2"
	"time"

	exprand "golang.org/x/exp/rand"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// Phase identifies one transformer lifecycle phase.
type Phase int

// Lifecycle phases.
const (
	PhaseFit Phase = iota
	PhaseTransform
	PhaseReverseTransform
)

// String returns the lifecycle method name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseFit:
		return "fit"
	case PhaseTransform:
		return "transform"
	case PhaseReverseTransform:
		return "reverse_transform"
	default:
		return "unknown"
	}
}

// Default per-phase seeds. The numeric reverse stream is seeded one above the
// general reverse stream so the two never coincide.
const (
	DefaultFitSeed            uint64 = 21
	DefaultTransformSeed      uint64 = 80
	DefaultReverseSeed        uint64 = 130
	defaultNumericReverseSeed uint64 = 131
)

// State is the generator pair for a single phase.
type State struct {
	seed        uint64
	numericSeed uint64

	pcg     *randv2.PCG
	general *randv2.Rand

	numericSrc *exprand.PCGSource
	numeric    *exprand.Rand
}

// NewState creates a State with distinct seeds for the two streams.
func NewState(seed, numericSeed uint64) *State {
	s := &State{seed: seed, numericSeed: numericSeed}
	s.Reset()
	return s
}

// TimeSeeded creates a State seeded from the wall clock, for callers that
// explicitly opt out of reproducibility.
func TimeSeeded() *State {
	now := uint64(time.Now().UnixNano())
	return NewState(now, now+1)
}

// General returns the general-purpose stream (shuffles, indices, uniforms).
func (s *State) General() *randv2.Rand { return s.general }

// Numeric returns the numeric-framework stream.
func (s *State) Numeric() *exprand.Rand { return s.numeric }

// Source returns the raw source for gonum distuv distributions.
func (s *State) Source() exprand.Source { return s.numericSrc }

// Seeds returns the seeds this state restarts from.
func (s *State) Seeds() (general, numeric uint64) { return s.seed, s.numericSeed }

// Reset restarts both streams at their initial seeds.
func (s *State) Reset() {
	s.pcg = randv2.NewPCG(s.seed, s.seed)
	s.general = randv2.New(s.pcg)

	s.numericSrc = &exprand.PCGSource{}
	s.numericSrc.Seed(s.numericSeed)
	s.numeric = exprand.New(s.numericSrc)
}

// Reader exposes the general stream as an io.Reader, e.g. for deterministic
// UUID generation.
func (s *State) Reader() io.Reader { return &streamReader{rng: s.general} }

type streamReader struct {
	rng *randv2.Rand
}

func (r *streamReader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], r.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

type stateWire struct {
	Seed        uint64
	NumericSeed uint64
	General     []byte
	Numeric     []byte
}

// GobEncode serializes the seeds and the exact stream positions.
func (s *State) GobEncode() ([]byte, error) {
	general, err := s.pcg.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal general stream")
	}
	numeric, err := s.numericSrc.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal numeric stream")
	}

	var buf bytes.Buffer
	wire := stateWire{Seed: s.seed, NumericSeed: s.numericSeed, General: general, Numeric: numeric}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, errors.Wrap(err, "encode random state")
	}
	return buf.Bytes(), nil
}

// GobDecode restores the streams mid-sequence: the next draw after loading is
// the draw that would have come next before saving.
func (s *State) GobDecode(data []byte) error {
	var wire stateWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return errors.Wrap(err, "decode random state")
	}

	s.seed = wire.Seed
	s.numericSeed = wire.NumericSeed
	s.Reset()
	if err := s.pcg.UnmarshalBinary(wire.General); err != nil {
		return errors.Wrap(err, "unmarshal general stream")
	}
	if err := s.numericSrc.UnmarshalBinary(wire.Numeric); err != nil {
		return errors.Wrap(err, "unmarshal numeric stream")
	}
	return nil
}

// States is the per-phase triple owned by one transformer instance.
// A nil *States means the owner draws from ambient, non-reproducible
// randomness instead.
type States struct {
	fit       *State
	transform *State
	reverse   *State
}

// NewStates creates the default-seeded triple (fit=21, transform=80,
// reverse=130, numeric reverse=131).
func NewStates() *States {
	return &States{
		fit:       NewState(DefaultFitSeed, DefaultFitSeed),
		transform: NewState(DefaultTransformSeed, DefaultTransformSeed),
		reverse:   NewState(DefaultReverseSeed, defaultNumericReverseSeed),
	}
}

// NewStatesSeed derives the triple from a custom base seed, preserving the
// default inter-phase offsets.
func NewStatesSeed(seed uint64) *States {
	return &States{
		fit:       NewState(seed, seed),
		transform: NewState(seed+(DefaultTransformSeed-DefaultFitSeed), seed+(DefaultTransformSeed-DefaultFitSeed)),
		reverse: NewState(
			seed+(DefaultReverseSeed-DefaultFitSeed),
			seed+(defaultNumericReverseSeed-DefaultFitSeed),
		),
	}
}

// For returns the State owned by the given phase.
func (st *States) For(p Phase) *State {
	switch p {
	case PhaseFit:
		return st.fit
	case PhaseTransform:
		return st.transform
	case PhaseReverseTransform:
		return st.reverse
	default:
		return nil
	}
}

// Reset restarts every phase at its initial seed.
func (st *States) Reset() {
	st.fit.Reset()
	st.transform.Reset()
	st.reverse.Reset()
}

type statesWire struct {
	Fit       *State
	Transform *State
	Reverse   *State
}

// GobEncode serializes all three phase states.
func (st *States) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	wire := statesWire{Fit: st.fit, Transform: st.transform, Reverse: st.reverse}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, errors.Wrap(err, "encode random states")
	}
	return buf.Bytes(), nil
}

// GobDecode restores all three phase states.
func (st *States) GobDecode(data []byte) error {
	var wire statesWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return errors.Wrap(err, "decode random states")
	}
	st.fit = wire.Fit
	st.transform = wire.Transform
	st.reverse = wire.Reverse
	return nil
}
