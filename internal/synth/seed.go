// Package synth derives deterministic synthetic operational data for the
// assistant fleet. Every output is a pure function of its inputs.
package synth

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// Seeder maps a string key to a stable non-negative integer.
//
// It exists only to spread synthetic values evenly across keys. It is NOT a
// security primitive and must never be used for tokens, ids that need to be
// unguessable, or anything an attacker could benefit from predicting.
type Seeder interface {
	Seed(key string) uint64
}

// SeedFunc adapts a plain function to the Seeder interface
type SeedFunc func(key string) uint64

// Seed implements Seeder
func (f SeedFunc) Seed(key string) uint64 {
	return f(key)
}

// DefaultSeeder hashes keys with xxHash64
var DefaultSeeder Seeder = SeedFunc(xxhash.Sum64String)

// mod returns h%n as an int
func mod(h uint64, n uint64) int {
	return int(h % n)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
