package model

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// Location is one spatial unit: exogenous fundamentals (amenity, productivity)
// plus equilibrium outcomes (population, wages, rents). IDs are unique within
// one result set.
type Location struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Population   float64 `json:"population"`
	Wages        float64 `json:"wages"`
	Rents        float64 `json:"rents"`
	Amenity      float64 `json:"amenity"`
	Productivity float64 `json:"productivity"`
}

// Parameters maps parameter names (housing share, elasticities, ...) to
// values. No key is guaranteed present; read through Value.
type Parameters map[string]float64

// Value returns the named parameter and whether it exists. Consumers must
// tolerate missing keys.
func (p Parameters) Value(name string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v, ok := p[name]
	return v, ok
}

// SimulationResult is one equilibrium dataset produced by the generation
// service. Location order is display order only. TotalWelfare is optional.
type SimulationResult struct {
	Description  string     `json:"description"`
	Locations    []Location `json:"locations"`
	Parameters   Parameters `json:"parameters"`
	TotalWelfare *float64   `json:"totalWelfare,omitempty"`
}

// Digest returns a short blake3 content hash of the result's canonical JSON
// encoding. Used by views to detect when a counterfactual was replaced.
func Digest(res *SimulationResult) string {
	if res == nil {
		return ""
	}
	b, err := json.Marshal(res)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
