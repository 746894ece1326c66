package catalog

import "errors"

var (
	// ErrMissingCatalogFile indicates the observational catalog does not exist.
	ErrMissingCatalogFile = errors.New("catalog: catalog file not found")

	// ErrEmptyCatalog indicates a catalog file that yielded no stars.
	ErrEmptyCatalog = errors.New("catalog: no stars in catalog")

	// ErrMalformedCatalog indicates a catalog that could not be parsed.
	ErrMalformedCatalog = errors.New("catalog: malformed catalog")
)
