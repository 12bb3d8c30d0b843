package client

import "errors"

// errEmptyFailure stands in for a nil error passed to Failure.
var errEmptyFailure = errors.New("client: failure without error")

// Outcome is the result of a client call: Data on success, Err on failure.
// Err is nil exactly when the call succeeded.
type Outcome[T any] struct {
	Data T
	Err  error
}

// Success returns a successful Outcome holding data.
func Success[T any](data T) Outcome[T] {
	return Outcome[T]{Data: data}
}

// Failure returns a failed Outcome. Data is the zero value. A nil err is
// replaced so the Outcome still reports failure.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		err = errEmptyFailure
	}
	return Outcome[T]{Err: err}
}

// OK reports whether the call succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Unwrap returns the data and error as a conventional pair.
func (o Outcome[T]) Unwrap() (T, error) { return o.Data, o.Err }
