package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/search/predicate"
)

// maxBodyBytes bounds a cone-search request body.
const maxBodyBytes = 1 << 20

// ConeSearchRequest is the JSON body of every /cone_search operation.
type ConeSearchRequest struct {
	RADeg    *float64      `json:"ra_deg"`
	DecDeg   *float64      `json:"dec_deg"`
	Catalogs []CatalogSpec `json:"catalogs"`
}

// CatalogSpec selects one catalog. Use is "indexed" or "partitioned", or the legacy
// "extcats" and "catsHTM". Only indexed specs may carry filters.
// A null KeysToAppend returns every public field.
type CatalogSpec struct {
	Use          string           `json:"use"`
	Name         string           `json:"name"`
	RsArcsec     *float64         `json:"rs_arcsec"`
	KeysToAppend []string         `json:"keys_to_append"`
	PreFilter    *filter.Document `json:"pre_filter,omitempty"`
	PostFilter   *string          `json:"post_filter,omitempty"`
}

// CatalogColumn is one column of a catalog descriptor.
type CatalogColumn struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

// CatalogDescriptor is the discovery view of a catalog.
type CatalogDescriptor struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Contact     string          `json:"contact,omitempty"`
	Columns     []CatalogColumn `json:"columns"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// decodeRequest reads and validates a cone-search body into a domain request.
func decodeRequest(w http.ResponseWriter, r *http.Request) (query.Request, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var body ConeSearchRequest
	if err := dec.Decode(&body); err != nil {
		return query.Request{}, domain.InvalidParameterf("invalid request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return query.Request{}, domain.InvalidParameterf("request body must hold a single JSON object")
	}
	return body.toDomain()
}

func (b ConeSearchRequest) toDomain() (query.Request, error) {
	if b.RADeg == nil || b.DecDeg == nil {
		return query.Request{}, domain.InvalidParameterf("ra_deg and dec_deg are required")
	}
	specs := make([]query.Spec, len(b.Catalogs))
	for i, c := range b.Catalogs {
		spec, err := c.toDomain()
		if err != nil {
			return query.Request{}, fmt.Errorf("catalogs[%d]: %w", i, err)
		}
		specs[i] = spec
	}
	return query.NewRequest(*b.RADeg, *b.DecDeg, specs)
}

func (c CatalogSpec) toDomain() (query.Spec, error) {
	kind, err := catalog.ParseKind(c.Use)
	if err != nil {
		return nil, domain.InvalidParameterf("use: %v", err)
	}
	if c.RsArcsec == nil {
		return nil, domain.InvalidParameterf("rs_arcsec is required for %q", c.Name)
	}

	if kind == catalog.Partitioned {
		if c.PreFilter != nil || c.PostFilter != nil {
			return nil, domain.InvalidParameterf("partitioned catalog %q does not support filters", c.Name)
		}
		return query.PartitionedSpec{Name: c.Name, RadiusArcsec: *c.RsArcsec, OutputKeys: c.KeysToAppend}, nil
	}

	pre, err := c.PreFilter.Build()
	if err != nil {
		return nil, fmt.Errorf("pre_filter: %w", err)
	}
	var post *predicate.Predicate
	if c.PostFilter != nil {
		if post, err = predicate.Compile(*c.PostFilter); err != nil {
			return nil, err
		}
	}
	return query.IndexedSpec{
		Name:         c.Name,
		RadiusArcsec: *c.RsArcsec,
		OutputKeys:   c.KeysToAppend,
		Pre:          pre,
		Post:         post,
	}, nil
}

func descriptorToDTO(d catalog.Descriptor) CatalogDescriptor {
	cols := make([]CatalogColumn, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = CatalogColumn{Name: c.Name, Unit: c.Unit}
	}
	return CatalogDescriptor{
		Name:        d.Name,
		Kind:        string(d.Kind),
		Description: d.Description,
		Reference:   d.Reference,
		Contact:     d.Contact,
		Columns:     cols,
	}
}
