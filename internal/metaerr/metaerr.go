// Package metaerr attaches structured key/value metadata to errors, so
// that context gathered deep in a call chain can be logged at the top.
package metaerr

import "errors"

type metaError struct {
	err  error
	meta []any
}

// WithMetadata wraps err with alternating key/value pairs suitable for
// passing to slog.With.
func WithMetadata(err error, keyvals ...any) error {
	if err == nil {
		return nil
	}
	return &metaError{err: err, meta: keyvals}
}

func (e *metaError) Error() string { return e.err.Error() }

func (e *metaError) Unwrap() error { return e.err }

// GetMetadata collects the key/value pairs of every metaError in the
// unwrap chain of err, outermost first.
func GetMetadata(err error) []any {
	var meta []any
	for err != nil {
		var me *metaError
		if !errors.As(err, &me) {
			break
		}
		meta = append(meta, me.meta...)
		err = me.err
	}
	return meta
}
