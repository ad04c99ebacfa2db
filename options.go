package icet

import "log/slog"

// Option configures a Context during creation, following the same
// functional-options shape gogpu-gg uses for its Context construction.
type Option func(*contextOptions)

type contextOptions struct {
	arenaCapHint int
	logger       *slog.Logger
	magicK       int
}

func defaultOptions() contextOptions {
	return contextOptions{
		arenaCapHint: 0,
		magicK:       2,
	}
}

// WithArenaCapHint pre-sizes the context's buffer arena, avoiding a
// reallocation on the first frame when the caller already knows roughly
// how much image data a frame will reserve.
func WithArenaCapHint(bytes int) Option {
	return func(o *contextOptions) { o.arenaCapHint = bytes }
}

// WithLogger overrides the package-level logger for diagnostics this
// context emits. A nil logger falls back to the package default (see
// SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *contextOptions) { o.logger = l }
}

// WithMagicK sets the radix-k factorization base the radix-k
// single-image strategy uses (spec S6). Must be ≥ 2; invalid values are
// silently clamped to the default of 2.
func WithMagicK(k int) Option {
	return func(o *contextOptions) {
		if k < 2 {
			k = 2
		}
		o.magicK = k
	}
}
