package catalog

import "fmt"

// Kind is the storage technology behind a catalog.
type Kind string

// Catalog kinds.
const (
	// Indexed catalogs live in a search-enabled key-value store with a vector index over positions.
	Indexed Kind = "indexed"
	// Partitioned catalogs live in parquet partition files selected by a hierarchical cell index.
	Partitioned Kind = "partitioned"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Indexed || k == Partitioned
}

// legacyKinds maps the storage names older clients send in "use".
var legacyKinds = map[string]Kind{
	"extcats": Indexed,
	"catsHTM": Partitioned,
}

// ParseKind validates a kind name. The legacy names extcats and catsHTM are accepted.
func ParseKind(s string) (Kind, error) {
	if k, ok := legacyKinds[s]; ok {
		return k, nil
	}
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown catalog kind %q", s)
	}
	return k, nil
}

// Column describes one catalog column. Unit is empty when the catalog does not declare one.
type Column struct {
	Name string
	Unit string
}

// Descriptor is the discovery view of a catalog.
type Descriptor struct {
	Name        string
	Kind        Kind
	Description string
	Reference   string
	Contact     string
	Columns     []Column
}
