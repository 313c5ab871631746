package dedupe

// Option configures the in-memory deduper.
type Option func(*keyCache)

// WithMaxSize sets how many keys are remembered. Zero or less means unbounded.
func WithMaxSize(maxKeys int) Option {
	return func(d *keyCache) {
		d.maxKeys = maxKeys
	}
}
