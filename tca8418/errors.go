package tca8418

import (
	"github.com/pkg/errors"
)

var (
	ErrPinRange        = errors.New("pin number must be between 0 and 17")
	ErrReadOnly        = errors.New("read only register")
	ErrEmptyQueue      = errors.New("no events in FIFO")
	ErrUnsupportedPull = errors.New("pull-down resistors are not supported")
)
