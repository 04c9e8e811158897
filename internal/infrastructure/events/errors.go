package events

import "errors"

var (
	ErrQueueFull       = errors.New("event queue full")
	ErrPublisherClosed = errors.New("event publisher closed")
)
