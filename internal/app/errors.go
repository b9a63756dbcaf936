package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrBackpressure   = errors.New("queue backpressure")
	ErrRawNotRetained = errors.New("raw sections not retained")
)
