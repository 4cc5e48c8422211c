package model

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable matches every ConnectivityError through errors.Is.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ConnectivityError reports a failed backend query. It is fatal for the
// current render cycle and must never be read as an empty page.
type ConnectivityError struct {
	Op         string
	Collection string
	StatusCode int
	Err        error
}

func (e *ConnectivityError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Collection)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

func (e *ConnectivityError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func NewConnectivityError(op, collection string, statusCode int, err error) *ConnectivityError {
	return &ConnectivityError{Op: op, Collection: collection, StatusCode: statusCode, Err: err}
}
