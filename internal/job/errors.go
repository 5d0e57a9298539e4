package job

import "errors"

var (
	ErrNoSources    = errors.New("no sources to transcode")
	ErrNotFound     = errors.New("job not found")
	ErrInvalidState = errors.New("invalid job state")
)
