package indexed

import "strings"

// Storage fields that never reach callers.
const (
	VectorKey = "__vector"
	ScoreKey  = "__vector_score"
	DistKey   = "__dist"
)

// Metadata hash fields.
const (
	MetaRAField  = "ra"
	MetaDecField = "dec"
)

var internalKeys = []string{VectorKey, ScoreKey, DistKey}

// Layout maps catalog names to keys under a shared prefix.
type Layout struct {
	Prefix string
}

// MetaKeys is the hash naming the coordinate fields of the catalog.
func (l Layout) MetaKeys(name string) string { return l.Prefix + name + ":meta:keys" }

// MetaScience is the optional hash with description, reference and contact.
func (l Layout) MetaScience(name string) string { return l.Prefix + name + ":meta:science" }

// SourcePrefix prefixes every source hash of the catalog.
func (l Layout) SourcePrefix(name string) string { return l.Prefix + name + ":src:" }

// Index is the FT index over the catalog sources.
func (l Layout) Index(name string) string { return l.Prefix + name + ":idx" }

// DiscoveryPattern matches every metadata key under the prefix.
func (l Layout) DiscoveryPattern() string { return l.Prefix + "*:meta:keys" }

// NameFromMetaKey is the inverse of MetaKeys.
func (l Layout) NameFromMetaKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, l.Prefix)
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, ":meta:keys")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
