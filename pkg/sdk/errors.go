package conesearch

import "github.com/kailas-cloud/conesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnknownCatalog     = domain.ErrUnknownCatalog
	ErrInvalidParameter   = domain.ErrInvalidParameter
	ErrBackendUnavailable = domain.ErrBackendUnavailable
	ErrMalformedMetadata  = domain.ErrMalformedMetadata
	ErrRangeTruncated     = domain.ErrRangeTruncated
)
