// Package projection decides which record fields a backend fetches and which the caller sees.
package projection

import "sort"

// Projection is the resolved field policy for one catalog query.
type Projection struct {
	// Pushdown lists the fields to request from storage. Nil requests every field.
	Pushdown []string
	allow    map[string]struct{}
	deny     map[string]struct{}
}

// Resolve builds the policy for the requested outputKeys.
// Nil outputKeys allows every field except internal ones. A non-nil set allows
// exactly outputKeys minus internal; requesting an internal key is ignored.
// coordinateKeys are always added to the pushdown so distances can be computed.
func Resolve(outputKeys, internalKeys, coordinateKeys []string) Projection {
	p := Projection{deny: toSet(internalKeys)}
	if outputKeys == nil {
		return p
	}
	p.allow = make(map[string]struct{}, len(outputKeys))
	for _, k := range outputKeys {
		if _, internal := p.deny[k]; !internal {
			p.allow[k] = struct{}{}
		}
	}

	fetch := make(map[string]struct{}, len(p.allow)+len(coordinateKeys))
	for k := range p.allow {
		fetch[k] = struct{}{}
	}
	for _, k := range coordinateKeys {
		fetch[k] = struct{}{}
	}
	p.Pushdown = make([]string, 0, len(fetch))
	for k := range fetch {
		p.Pushdown = append(p.Pushdown, k)
	}
	sort.Strings(p.Pushdown)
	return p
}

// Unrestricted reports whether every public field is allowed.
func (p Projection) Unrestricted() bool { return p.allow == nil }

// Allows reports whether key may appear in caller output.
func (p Projection) Allows(key string) bool {
	if _, denied := p.deny[key]; denied {
		return false
	}
	if p.allow == nil {
		return true
	}
	_, ok := p.allow[key]
	return ok
}

// WithoutPushdown returns a copy that fetches every field but filters output the same way.
func (p Projection) WithoutPushdown() Projection {
	p.Pushdown = nil
	return p
}

// Apply returns a new map holding only the allowed fields of record.
func (p Projection) Apply(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if p.Allows(k) {
			out[k] = v
		}
	}
	return out
}

func toSet(keys []string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}
