package partitioned

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const readBatch = 1000

// partitionHandle wraps parquet.File + underlying os.File for proper cleanup.
type partitionHandle struct {
	pf   *parquet.File
	file *os.File
}

func (h *partitionHandle) Close() {
	_ = h.file.Close()
}

func openPartition(path string) (*partitionHandle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &partitionHandle{pf: pf, file: f}, nil
}

type leaf struct {
	name     string
	repeated bool
}

// leaves names every leaf column. A top-level field with one leaf keeps its own name,
// nested leaves are joined with dots.
func leaves(schema *parquet.Schema) []leaf {
	paths := schema.Columns()
	perTop := make(map[string]int, len(paths))
	for _, p := range paths {
		if len(p) > 0 {
			perTop[p[0]]++
		}
	}

	out := make([]leaf, len(paths))
	for i, p := range paths {
		if len(p) == 0 {
			continue
		}
		name := p[0]
		if perTop[p[0]] > 1 {
			name = strings.Join(p, ".")
		}
		lc, _ := schema.Lookup(p...)
		out[i] = leaf{name: name, repeated: lc.MaxRepetitionLevel > 0}
	}
	return out
}

// readPartition streams every row of the file through fn. fn returning false stops the read.
// ctx is checked before every batch; its error is returned as is.
func readPartition(ctx context.Context, path string, fn func(record map[string]any) bool) error {
	h, err := openPartition(path)
	if err != nil {
		return err
	}
	defer h.Close()

	cols := leaves(h.pf.Schema())
	buf := make([]parquet.Row, readBatch)

	for _, rg := range h.pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if !fn(toRecord(buf[i], cols)) {
					return nil
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return nil
}

func toRecord(row parquet.Row, cols []leaf) map[string]any {
	rec := make(map[string]any, len(cols))
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= len(cols) || cols[c].name == "" {
			continue
		}
		l := cols[c]
		if !l.repeated {
			rec[l.name] = convert(v)
			continue
		}
		list, _ := rec[l.name].([]any)
		if list == nil {
			list = []any{}
		}
		if !v.IsNull() {
			list = append(list, convert(v))
		}
		rec[l.name] = list
	}
	return rec
}

// convert maps a parquet value onto the record value domain.
func convert(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
