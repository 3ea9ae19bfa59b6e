package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCatalog signals a catalog name that does not resolve to a usable backend.
	ErrUnknownCatalog = errors.New("unknown catalog")
	// ErrInvalidParameter signals malformed client input (coordinates, radius, filters).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBackendUnavailable signals that a catalog store cannot be reached or read.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrMalformedMetadata signals a catalog whose schema or coordinate-key metadata is missing or inconsistent.
	ErrMalformedMetadata = errors.New("malformed catalog metadata")
	// ErrRangeTruncated signals a cone holding more candidates than the store may return in one query.
	ErrRangeTruncated = errors.New("cone exceeds range limit")
)

// UnknownCatalogError names the catalog that failed to resolve.
type UnknownCatalogError struct {
	Name string
	Kind string
	// Cause is the construction failure, if any.
	Cause error
}

func (e *UnknownCatalogError) Error() string {
	if e.Cause != nil && errors.Is(e.Cause, ErrMalformedMetadata) {
		return fmt.Sprintf("%s: %s catalog %q: %s", ErrUnknownCatalog.Error(), e.Kind, e.Name, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s catalog %q", ErrUnknownCatalog.Error(), e.Kind, e.Name)
}

// Unwrap exposes both the sentinel and the construction cause to errors.Is.
func (e *UnknownCatalogError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnknownCatalog}
	}
	return []error{ErrUnknownCatalog, e.Cause}
}

// NewUnknownCatalog creates an unknown catalog error.
func NewUnknownCatalog(kind, name string, cause error) error {
	return &UnknownCatalogError{Name: name, Kind: kind, Cause: cause}
}

// InvalidParameterf formats an ErrInvalidParameter with detail.
func InvalidParameterf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// MalformedMetadataf formats an ErrMalformedMetadata with detail.
func MalformedMetadataf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMetadata, fmt.Sprintf(format, args...))
}
