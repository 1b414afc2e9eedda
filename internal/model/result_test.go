package model

import "testing"

func sample() *SimulationResult {
	return &SimulationResult{
		Description: "baseline",
		Locations: []Location{
			{ID: "1", Name: "Core", Population: 100, Wages: 12.5, Rents: 8, Amenity: 1.1, Productivity: 1.4},
		},
		Parameters: Parameters{"housing_share": 0.3},
	}
}

func TestDigest_Stable(t *testing.T) {
	a, b := sample(), sample()
	da, db := Digest(a), Digest(b)
	if da == "" {
		t.Fatalf("digest empty")
	}
	if len(da) != 16 {
		t.Fatalf("digest length: %d", len(da))
	}
	if da != db {
		t.Fatalf("equal results must digest equal: %q vs %q", da, db)
	}
}

func TestDigest_Distinguishes(t *testing.T) {
	a, b := sample(), sample()
	b.Locations[0].Population = 120
	if Digest(a) == Digest(b) {
		t.Fatalf("different results must digest different")
	}
}

func TestDigest_Nil(t *testing.T) {
	if got := Digest(nil); got != "" {
		t.Fatalf("nil digest: %q", got)
	}
}

func TestParameters_Value(t *testing.T) {
	var p Parameters
	if _, ok := p.Value("anything"); ok {
		t.Fatalf("nil parameters must report missing")
	}
	p = Parameters{"sigma": 4.0}
	if v, ok := p.Value("sigma"); !ok || v != 4.0 {
		t.Fatalf("Value(sigma): %v %v", v, ok)
	}
	if _, ok := p.Value("theta"); ok {
		t.Fatalf("missing key reported present")
	}
}
