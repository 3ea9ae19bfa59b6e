// Package predicate compiles post-filter expressions evaluated against matched records.
package predicate

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/kailas-cloud/conesearch/internal/domain"
)

// MaxSourceLen bounds the accepted expression text.
const MaxSourceLen = 4096

// DistanceVar is the variable bound to the candidate's separation from the cone center.
const DistanceVar = "dist_arcsec"

// maxShapes caps the per-predicate program cache; further shapes compile uncached.
const maxShapes = 64

// Predicate is a boolean expression over record fields.
// Programs are type-checked against each distinct record shape, so record
// fields shadow expr builtins of the same name (a "type" column stays a column).
type Predicate struct {
	source string

	mu       sync.Mutex
	programs map[string]*vm.Program // nil entry: shape cannot satisfy the expression
}

// Compile parses src. Blank input yields nil: no predicate.
func Compile(src string) (*Predicate, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}
	if len(src) > MaxSourceLen {
		return nil, domain.InvalidParameterf("post_filter longer than %d bytes", MaxSourceLen)
	}
	if _, err := parser.Parse(src); err != nil {
		return nil, domain.InvalidParameterf("post_filter: %v", err)
	}
	return &Predicate{source: src, programs: make(map[string]*vm.Program)}, nil
}

// String returns the source text.
func (p *Predicate) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Eval runs the predicate against record with DistanceVar bound to distArcsec.
// A nil predicate accepts everything. A record the expression cannot be applied
// to (a missing field, a string where a number is compared) does not match.
func (p *Predicate) Eval(record map[string]any, distArcsec float64) bool {
	if p == nil {
		return true
	}
	env := make(map[string]any, len(record)+1)
	for k, v := range record {
		env[k] = v
	}
	env[DistanceVar] = distArcsec

	program := p.program(env)
	if program == nil {
		return false
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (p *Predicate) program(env map[string]any) *vm.Program {
	key := shape(env)

	p.mu.Lock()
	program, cached := p.programs[key]
	p.mu.Unlock()
	if cached {
		return program
	}

	program, err := expr.Compile(p.source, expr.Env(env), expr.AsBool())
	if err != nil {
		program = nil
	}

	p.mu.Lock()
	if len(p.programs) < maxShapes {
		p.programs[key] = program
	}
	p.mu.Unlock()
	return program
}

// shape keys an environment by its field names and value types.
func shape(env map[string]any) string {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		fmt.Fprintf(&b, "%s:%T;", k, env[k])
	}
	return b.String()
}
