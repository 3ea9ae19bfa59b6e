package partitioned

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/parquet-go/parquet-go"
)

type rosatRow struct {
	RA       float64 `parquet:"ra"`
	Dec      float64 `parquet:"dec"`
	Name     string  `parquet:"name"`
	Flux     float32 `parquet:"flux"`
	Count    int32   `parquet:"count"`
	Extended bool    `parquet:"extended"`
	Note     *string `parquet:"note,optional"`
}

const rosatSchema = `name: ROSATfsc
description: ROSAT faint source catalog
reference: Voges et al. 2000
level: 7
ra_column: ra
dec_column: dec
columns:
  - {name: ra, unit: deg}
  - {name: dec, unit: deg}
  - {name: name}
  - {name: flux, unit: ct/s}
  - {name: count}
  - {name: extended}
  - {name: note}
`

// rosatInside lie within one degree of (5, 5), none within a minute.
var rosatInside = [][2]float64{
	{5.1, 5}, {5, 5.2}, {4.7, 5}, {5, 4.5}, {5.5, 5.3},
	{4.5, 4.6}, {5.3, 5.6}, {5.8, 5}, {5, 5.9},
}

var rosatOutside = [][2]float64{
	{6.2, 5}, {5, 6.1}, {3, 3}, {200, -30},
}

func rosatRows() []rosatRow {
	note := "flagged"
	var rows []rosatRow
	for i, p := range append(append([][2]float64{}, rosatInside...), rosatOutside...) {
		r := rosatRow{
			RA: p[0], Dec: p[1],
			Name:     "1RXS-" + string(rune('A'+i)),
			Flux:     0.25 * float32(i+1),
			Count:    int32(10 * (i + 1)),
			Extended: i%2 == 0,
		}
		if i == 0 {
			r.Note = &note
		}
		rows = append(rows, r)
	}
	return rows
}

func cellToken(ra, dec float64, level int) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(dec, ra)).Parent(level).ToToken()
}

// writeCatalog lays out root/name with the schema and rows partitioned by cell.
// coord maps a row to the degrees used for partitioning.
func writeCatalog[T any](t *testing.T, root, name, schema string, level int, rows []T, coord func(T) (float64, float64)) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, SchemaFile), []byte(schema), 0o644); err != nil {
		t.Fatal(err)
	}

	byCell := map[string][]T{}
	for _, r := range rows {
		ra, dec := coord(r)
		tok := cellToken(ra, dec, level)
		byCell[tok] = append(byCell[tok], r)
	}
	for tok, rs := range byCell {
		if err := parquet.WriteFile(filepath.Join(dir, tok+PartitionExt), rs); err != nil {
			t.Fatalf("write partition %s: %v", tok, err)
		}
	}
	return dir
}

func writeRosat(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeCatalog(t, root, "ROSATfsc", rosatSchema, 7, rosatRows(), func(r rosatRow) (float64, float64) {
		return r.RA, r.Dec
	})
	return root
}
