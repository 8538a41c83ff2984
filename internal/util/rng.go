package util

import "math/rand"

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// TrialSeed derives the seed of one trial from the batch seed. It depends on
// the trial index only, so a batch gives the same streams whatever the
// number of workers. Nearby batch seeds do not share trial streams.
func TrialSeed(base int64, trial int) int64 {
	return int64(splitmix64(splitmix64(uint64(base)) + uint64(trial)))
}

// splitmix64 is the finalizer of Vigna's SplitMix64 generator.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
