package system

import "math/rand"

// RandomNumbers is the NumberMaker the game runs with.
type RandomNumbers struct {
	rng *rand.Rand
}

func NewRandomNumbers(seed int64) *RandomNumbers {
	return &RandomNumbers{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomNumbers) RandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rng.Intn(n)
}
