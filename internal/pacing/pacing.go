// Package pacing provides the randomized delays inserted between browser
// actions. The policy is injectable so tests can run with zero delay.
package pacing

import (
	"math"
	"math/rand"
	"time"
)

// Policy controls how long the bot pauses between actions and keystrokes.
type Policy interface {
	// Sleep pauses for a random duration in [min, max].
	Sleep(min, max time.Duration)
	// Keystroke pauses between two typed characters.
	Keystroke()
}

// Human returns a policy with randomized, human-like delays.
func Human() Policy { return human{} }

// None returns a policy that never sleeps.
func None() Policy { return none{} }

type human struct{}

func (human) Sleep(min, max time.Duration) {
	if max < min {
		max = min
	}
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span) + 1))
	}
	time.Sleep(d)
}

// Keystroke sleeps 50-150ms per character, matching a slow touch typist.
func (human) Keystroke() {
	time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
}

// Gaussian sleeps around mean with the given deviation, clamped to
// mean +/- 3*stddev. Most delays cluster near the mean, which reads more
// naturally than a uniform distribution.
func Gaussian(mean, stddev time.Duration) {
	u1 := rand.Float64()
	u2 := rand.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	d := time.Duration(float64(mean) + z*float64(stddev))
	if lo := mean - 3*stddev; d < lo {
		d = lo
	}
	if hi := mean + 3*stddev; d > hi {
		d = hi
	}
	if d > 0 {
		time.Sleep(d)
	}
}

type none struct{}

func (none) Sleep(min, max time.Duration) {}
func (none) Keystroke()                   {}
