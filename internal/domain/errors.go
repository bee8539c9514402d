package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced by the pipeline wraps exactly one of these,
// so callers classify with errors.Is.
var (
	// ErrValidation is returned for malformed input the caller can correct.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a record or template does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpstream is returned when a resolver or external API call fails.
	ErrUpstream = errors.New("upstream request failed")

	// ErrRender is returned when template compilation or rasterization fails.
	ErrRender = errors.New("render failed")

	// ErrStore is returned when the artifact store rejects or fails a write.
	ErrStore = errors.New("store operation failed")
)

var (
	// ErrInvalidURL is returned when the source URL cannot be parsed.
	ErrInvalidURL = fmt.Errorf("%w: invalid source URL", ErrValidation)

	// ErrTweetHost is returned when a tweet reference is not hosted on twitter.com.
	ErrTweetHost = fmt.Errorf("%w: not a valid Twitter URL", ErrValidation)

	// ErrInvalidTweetID is returned when the tweet URL has no numeric status ID.
	ErrInvalidTweetID = fmt.Errorf("%w: tweet URL has no status ID", ErrValidation)

	// ErrUnknownSourceKind is returned for a source type other than twitter or url.
	ErrUnknownSourceKind = fmt.Errorf("%w: unknown source type", ErrValidation)

	// ErrInvalidTemplateID is returned when the template ID is not positive.
	ErrInvalidTemplateID = fmt.Errorf("%w: template ID must be positive", ErrValidation)

	// ErrTemplateNotFound is returned when no template file exists for the ID.
	ErrTemplateNotFound = fmt.Errorf("%w: template", ErrNotFound)

	// ErrConflict is returned when a non-overwriting write hits an existing key.
	ErrConflict = fmt.Errorf("%w: object already exists", ErrStore)
)

// Wrap annotates err with op and tags it with kind, unless err already carries it.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Kind returns the error kind carried by err, or nil if it carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrUpstream, ErrRender, ErrStore} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
