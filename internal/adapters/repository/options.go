package repository

import (
	"time"

	"github.com/okian/bakery/pkg/logger"
)

// Option applies a configuration option to Open.
type Option func(*options)

type options struct {
	logger        logger.Logger
	slowThreshold time.Duration
	maxOpenConns  int
}

// WithLogger routes ORM logs (failed and slow queries) to l.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSlowQueryThreshold sets the duration above which queries are logged as slow.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.slowThreshold = d
		}
	}
}

// WithMaxOpenConns caps the connection pool. Ignored for sqlite, which always
// uses a single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}
