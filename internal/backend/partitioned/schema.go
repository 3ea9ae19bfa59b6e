package partitioned

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
)

// SchemaFile is the per-catalog schema file name.
const SchemaFile = "catalog.yaml"

// DefaultLevel is the S2 partition level when the schema omits one.
const DefaultLevel = 7

const maxLevel = 30

// Degree coordinates added to every record of a radian catalog.
const (
	DegreeRA  = "ra"
	DegreeDec = "dec"
)

// Angle units of the coordinate columns.
const (
	UnitDegrees = "deg"
	UnitRadians = "rad"
)

// Schema is the parsed catalog.yaml of a partitioned catalog.
type Schema struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Reference   string         `yaml:"reference"`
	Contact     string         `yaml:"contact"`
	Level       *int           `yaml:"level"`
	RAColumn    string         `yaml:"ra_column"`
	DecColumn   string         `yaml:"dec_column"`
	AngleUnit   string         `yaml:"angle_unit"`
	Columns     []SchemaColumn `yaml:"columns"`
}

// SchemaColumn is one declared column.
type SchemaColumn struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

// PartitionLevel returns the configured level or DefaultLevel.
func (s *Schema) PartitionLevel() int {
	if s.Level == nil {
		return DefaultLevel
	}
	return *s.Level
}

// Radians reports whether coordinate columns hold radians.
func (s *Schema) Radians() bool { return s.AngleUnit == UnitRadians }

// ParseSchema decodes and validates schema data for the catalog stored in dir name.
func ParseSchema(data []byte, name string) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, domain.MalformedMetadataf("catalog %q: parse %s: %v", name, SchemaFile, err)
	}
	if s.AngleUnit == "" {
		s.AngleUnit = UnitDegrees
	}
	if err := s.validate(name); err != nil {
		return nil, domain.MalformedMetadataf("catalog %q: %v", name, err)
	}
	return &s, nil
}

func (s *Schema) validate(dirName string) error {
	if s.Name != dirName {
		return fmt.Errorf("name %q does not match directory %q", s.Name, dirName)
	}
	if lvl := s.PartitionLevel(); lvl < 0 || lvl > maxLevel {
		return fmt.Errorf("level must be in [0, %d], got %d", maxLevel, lvl)
	}
	if s.AngleUnit != UnitDegrees && s.AngleUnit != UnitRadians {
		return fmt.Errorf("angle_unit must be %q or %q, got %q", UnitDegrees, UnitRadians, s.AngleUnit)
	}
	if s.RAColumn == "" || s.DecColumn == "" {
		return errors.New("ra_column and dec_column are required")
	}
	if len(s.Columns) == 0 {
		return errors.New("columns must not be empty")
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("columns[%d]: name is required", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("columns[%d]: duplicate column %q", i, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	for _, k := range []string{s.RAColumn, s.DecColumn} {
		if _, ok := seen[k]; !ok {
			return fmt.Errorf("coordinate column %q not declared in columns", k)
		}
	}
	return nil
}

// Descriptor converts the schema to a catalog descriptor.
func (s *Schema) Descriptor() catalog.Descriptor {
	cols := make([]catalog.Column, 0, len(s.Columns)+2)
	for _, c := range s.Columns {
		if s.Radians() && (c.Name == DegreeRA || c.Name == DegreeDec) {
			continue
		}
		cols = append(cols, catalog.Column{Name: c.Name, Unit: c.Unit})
	}
	if s.Radians() {
		cols = append(cols,
			catalog.Column{Name: DegreeRA, Unit: UnitDegrees},
			catalog.Column{Name: DegreeDec, Unit: UnitDegrees})
	}
	return catalog.Descriptor{
		Name:        s.Name,
		Kind:        catalog.Partitioned,
		Description: s.Description,
		Reference:   s.Reference,
		Contact:     s.Contact,
		Columns:     cols,
	}
}

// loadSchema reads dir/catalog.yaml. A missing file is malformed metadata; any other
// read failure means the root cannot be read.
func loadSchema(dir, name string) (*Schema, error) {
	data, err := os.ReadFile(filepath.Join(dir, SchemaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.MalformedMetadataf("catalog %q: %s missing", name, SchemaFile)
		}
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrBackendUnavailable, SchemaFile, err)
	}
	return ParseSchema(data, name)
}
