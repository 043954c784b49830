package domain

import "errors"

// ErrDuplicateJob indicates a job id collision in the registry
var ErrDuplicateJob = errors.New("job already exists")

// ErrQueueFull indicates the dispatcher queue is saturated
var ErrQueueFull = errors.New("download queue is full")

// ErrMissingArtifact indicates the engine reported success but no file materialized
var ErrMissingArtifact = errors.New("no file found after download")
