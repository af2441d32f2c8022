package mat

import "math/rand"

// RandNormal returns a rows x cols matrix of samples from N(mean, std²) drawn from rng.
func RandNormal[T Float](rng *rand.Rand, rows, cols int, mean, std T) *Dense[T] {
	m := Zeros[T](rows, cols)
	for i := range m.data {
		m.data[i] = mean + std*T(rng.NormFloat64())
	}
	return m
}

// RandUniform returns a rows x cols matrix of samples from U[lo, hi).
func RandUniform[T Float](rng *rand.Rand, rows, cols int, lo, hi T) *Dense[T] {
	m := Zeros[T](rows, cols)
	for i := range m.data {
		m.data[i] = lo + (hi-lo)*T(rng.Float64())
	}
	return m
}

// Bernoulli returns a rows x cols mask whose entries are 1 with probability p and 0 otherwise.
func Bernoulli[T Float](rng *rand.Rand, rows, cols int, p float64) *Dense[T] {
	m := Zeros[T](rows, cols)
	for i := range m.data {
		if rng.Float64() < p {
			m.data[i] = 1
		}
	}
	return m
}
