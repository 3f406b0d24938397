package core

import goerrors "github.com/goliatone/go-errors"

// Result carries either data or an error. Multi unit operations may carry
// both: the units that succeeded plus an aggregate error for the rest.
type Result[T any] struct {
	Data  T              `json:"data"`
	Error *ErrorResponse `json:"error"`
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

func Fail[T any](err error) Result[T] {
	response := ToErrorResponse(err)
	if response == nil {
		response = ToErrorResponse(NewError("An unexpected error occurred", goerrors.CategoryInternal, ErrorInternal))
	}
	return Result[T]{Error: response}
}

func Partial[T any](data T, err *ErrorResponse) Result[T] {
	return Result[T]{Data: data, Error: err}
}

func (r Result[T]) OK() bool {
	return r.Error == nil
}

// Err returns the error as a plain error value, nil when the result is ok.
func (r Result[T]) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}
