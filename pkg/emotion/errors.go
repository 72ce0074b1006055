package emotion

import "errors"

var (
	// ErrModelNotFound is returned when a model file does not exist.
	ErrModelNotFound = errors.New("emotion: model file not found")

	// ErrModelLoad is returned when a model file exists but cannot be loaded.
	ErrModelLoad = errors.New("emotion: failed to load model")

	// ErrEmptyImage is returned when asked to process an empty frame.
	ErrEmptyImage = errors.New("emotion: empty image")

	// ErrLabelMismatch is returned when the classifier output size does not
	// match the configured labels.
	ErrLabelMismatch = errors.New("emotion: classifier output does not match labels")

	// ErrNoLabels is returned when a classifier is configured without labels.
	ErrNoLabels = errors.New("emotion: no labels configured")
)
