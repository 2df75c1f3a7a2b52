package ports

// RNGPort supplies the uniform draws used to instantiate scenario parameters.
// Production uses an unseeded source; tests inject a seeded one.
type RNGPort interface {
	// Intn returns a uniform int in [0, n). n must be positive.
	Intn(n int) int
}
