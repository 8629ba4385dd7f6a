// Package faultinjector simulates an unreliable channel at the server: per
// inbound segment it samples one of a fixed set of outcomes (loss or
// corruption, in or out) from a seedable PRNG so runs are replayable.
package faultinjector

import (
	"math/rand"

	"github.com/jborges/sdtp/internal/wire"
)

// Outcome enumerates the five simulated-channel events from §4.6.
type Outcome int

const (
	None Outcome = iota
	LostIn
	LostOut
	SumIn
	SumOut
)

func (o Outcome) String() string {
	switch o {
	case None:
		return "NONE"
	case LostIn:
		return "LOST_IN"
	case LostOut:
		return "LOST_OUT"
	case SumIn:
		return "SUM_IN"
	case SumOut:
		return "SUM_OUT"
	default:
		return "UNKNOWN"
	}
}

// cumulative probability boundaries: NONE 70, LOST_IN 10, LOST_OUT 5,
// SUM_IN 5, SUM_OUT 10 -- matches the reference's prob[] table exactly.
var boundaries = [...]struct {
	upTo    int
	outcome Outcome
}{
	{70, None},
	{80, LostIn},
	{85, LostOut},
	{90, SumIn},
	{100, SumOut},
}

// Injector draws fault outcomes from a seedable PRNG.
type Injector struct {
	rng *rand.Rand
}

// New creates an Injector seeded deterministically for reproducible replay.
func New(seed int64) *Injector {
	return &Injector{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws the next outcome for one inbound segment.
func (i *Injector) Sample() Outcome {
	r := i.rng.Intn(100)
	for _, b := range boundaries {
		if r < b.upTo {
			return b.outcome
		}
	}
	return SumOut
}

// Window draws a fresh advertised window uniformly from [1, MSS], sharing
// the injector's PRNG stream with Sample so a seeded run is fully
// deterministic end to end, as in the reference implementation's single
// rand() stream.
func (i *Injector) Window() uint16 {
	return uint16(i.rng.Intn(wire.MSS) + 1)
}

// Corrupt overwrites 5 random byte positions within buf[:headerLen] with
// random bytes, simulating SUM_OUT corruption of an outbound reply header.
func (i *Injector) Corrupt(buf []byte, headerLen int) {
	if headerLen > len(buf) {
		headerLen = len(buf)
	}
	if headerLen == 0 {
		return
	}
	for n := 0; n < 5; n++ {
		pos := i.rng.Intn(headerLen)
		buf[pos] = byte(i.rng.Intn(256))
	}
}
