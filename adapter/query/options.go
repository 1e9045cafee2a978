package query

import "math/rand/v2"

// WithRand sets the source used by [Query.Shuffle].
func WithRand(r *rand.Rand) Option {
	return func(q *Query) {
		q.rand = r
	}
}

// Option configures a [Query].
type Option func(*Query)
