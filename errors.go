package vsetbrowse

import (
	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrTransport              = domain.ErrTransport
	ErrParse                  = domain.ErrParse
	ErrNotFound               = domain.ErrNotFound
	ErrNoDataset              = domain.ErrNoDataset
	ErrEmbedderNotConfigured  = domain.ErrEmbedderNotConfigured
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrSearchNotConfigured    = browser.ErrSearchNotConfigured
)
