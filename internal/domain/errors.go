package domain

import (
	"errors"
)

var (
	// ErrValidation signals malformed batch input, rejected before any network effect.
	ErrValidation = errors.New("validation failed")
	// ErrTransport signals a failed bulk call to the store.
	ErrTransport = errors.New("transport failed")
	// ErrParse signals an attribute payload that is not well-formed attribute data.
	ErrParse = errors.New("malformed attributes")
	// ErrNotFound signals a missing key or element.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbedderNotConfigured signals a text query without a configured embedder.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
	// ErrNoDataset signals an operation that needs an active dataset.
	ErrNoDataset = errors.New("no dataset loaded")
)
