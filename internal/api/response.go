package api

import "errors"

// Response carries either the data of a successful call or the error the
// API answered with. Defects never end up here; they are returned as plain
// Go errors next to the Response.
type Response[T any] struct {
	Data  T
	Error *APIError
}

// OK wraps a successful result.
func OK[T any](data T) Response[T] {
	return Response[T]{Data: data}
}

// Fail wraps an API rejection.
func Fail[T any](apiErr *APIError) Response[T] {
	return Response[T]{Error: apiErr}
}

// OK reports whether the call succeeded.
func (r Response[T]) OK() bool {
	return r.Error == nil
}

// Parse turns an API rejection into a failed Response. Any other error is
// handed back untouched so the caller propagates it.
func Parse[T any](err error) (Response[T], error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Fail[T](apiErr), nil
	}
	return Response[T]{}, err
}
