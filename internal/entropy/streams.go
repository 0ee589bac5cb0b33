package entropy

import "math/rand"

// Stream separates the random sequences drawn from one run seed, so adding
// draws to one subsystem leaves the others unchanged.
type Stream int64

const (
	StreamLevel Stream = 100 // Level generation
	StreamSpawn Stream = 300 // Ant placement and speeds
	StreamTurns Stream = 500 // Random turns while walking
)

// NewRand returns the generator for one stream of seed.
func NewRand(seed int64, s Stream) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(s)))
}
