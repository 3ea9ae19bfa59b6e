// Package match holds cone-search match results.
package match

// Result is one matched record: its projected, transport-safe body and its separation from the cone center.
type Result struct {
	Body       map[string]any `json:"body"`
	DistArcsec float64        `json:"dist_arcsec"`
}
