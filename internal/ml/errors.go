// Package ml implements the malaria risk pipeline: feature preparation glue,
// model training with per-class evaluation, and prediction from recent
// municipality history.
package ml

import "fmt"

// ConfigError reports an invalid or missing configuration option. It is
// returned before any computation starts and is never partially applied.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Option == "" {
		return "config error: " + e.Reason
	}
	return fmt.Sprintf("config error: %s: %s", e.Option, e.Reason)
}

// DataError reports insufficient, malformed, or empty input data. It is an
// expected condition the caller can act on, not an infrastructure failure.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "data error: " + e.Reason
}

// StorageError reports a failure reading or writing the model artifact.
// Training or prediction is not considered successful when one occurs, even
// if the in-memory computation finished.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotLoadedError reports a prediction attempted without a loaded model.
type NotLoadedError struct{}

func (e *NotLoadedError) Error() string {
	return "model not loaded"
}
