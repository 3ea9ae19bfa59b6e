package sky

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestNewPosition_Valid(t *testing.T) {
	for _, tc := range []struct{ ra, dec float64 }{
		{0, 0}, {359.9999, 90}, {180, -90}, {265, -89.58},
	} {
		if _, err := NewPosition(tc.ra, tc.dec); err != nil {
			t.Errorf("NewPosition(%v, %v): unexpected error: %v", tc.ra, tc.dec, err)
		}
	}
}

func TestNewPosition_Invalid(t *testing.T) {
	for _, tc := range []struct{ ra, dec float64 }{
		{-0.1, 0}, {360, 0}, {0, 90.01}, {0, -91}, {math.NaN(), 0}, {0, math.Inf(1)},
	} {
		if _, err := NewPosition(tc.ra, tc.dec); err == nil {
			t.Errorf("NewPosition(%v, %v): expected error", tc.ra, tc.dec)
		}
	}
}

func TestSeparation_SamePoint(t *testing.T) {
	p := Position{RA: 12.5, Dec: -33}
	if d := Separation(p, p); !almost(d, 0, 1e-9) {
		t.Fatalf("want 0, got %v", d)
	}
}

func TestSeparation_AlongDec(t *testing.T) {
	d := Separation(Position{RA: 5, Dec: 5}, Position{RA: 5, Dec: 6})
	if !almost(d, 3600, 1e-6) {
		t.Fatalf("want 3600, got %v", d)
	}
}

func TestSeparation_Wraparound(t *testing.T) {
	d := Separation(Position{RA: 359.99, Dec: 0}, Position{RA: 0.01, Dec: 0})
	if !almost(d, 72, 1e-6) {
		t.Fatalf("want 72 arcsec, got %v", d)
	}
}

func TestSeparation_AcrossPole(t *testing.T) {
	// Both points 0.5 deg from the pole on opposite meridians.
	d := Separation(Position{RA: 0, Dec: 89.5}, Position{RA: 180, Dec: 89.5})
	if !almost(d, 3600, 1e-6) {
		t.Fatalf("want 3600, got %v", d)
	}
}

func TestSeparation_PoleIgnoresRA(t *testing.T) {
	d := Separation(Position{RA: 10, Dec: -90}, Position{RA: 250, Dec: -90})
	if !almost(d, 0, 1e-6) {
		t.Fatalf("want 0, got %v", d)
	}
}

func TestSeparation_Antipodal(t *testing.T) {
	d := Separation(Position{RA: 0, Dec: 0}, Position{RA: 180, Dec: 0})
	if !almost(d, 180*ArcsecPerDegree, 1e-6) {
		t.Fatalf("want %v, got %v", 180*ArcsecPerDegree, d)
	}
}

func TestFromRadians(t *testing.T) {
	p := FromRadians(-math.Pi/2, math.Pi/4)
	if !almost(p.RA, 270, 1e-9) || !almost(p.Dec, 45, 1e-9) {
		t.Fatalf("want (270,45), got (%v,%v)", p.RA, p.Dec)
	}
}

func TestToVector_Axes(t *testing.T) {
	tests := []struct {
		name string
		p    Position
		want [3]float64
	}{
		{"vernal equinox", Position{RA: 0, Dec: 0}, [3]float64{1, 0, 0}},
		{"ra 90", Position{RA: 90, Dec: 0}, [3]float64{0, 1, 0}},
		{"north pole", Position{RA: 0, Dec: 90}, [3]float64{0, 0, 1}},
		{"south pole", Position{RA: 0, Dec: -90}, [3]float64{0, 0, -1}},
	}
	for _, tc := range tests {
		v := ToVector(tc.p)
		if len(v) != VectorDim {
			t.Fatalf("%s: want len %d, got %d", tc.name, VectorDim, len(v))
		}
		for i := range v {
			if !almost(float64(v[i]), tc.want[i], 1e-6) {
				t.Errorf("%s: component %d want %v got %v", tc.name, i, tc.want[i], v[i])
			}
		}
	}
}

func TestChordRoundTrip(t *testing.T) {
	for _, arcsec := range []float64{1, 60, 3600, 90 * ArcsecPerDegree} {
		got := ChordToArcsec(ChordForArcsec(arcsec))
		if !almost(got, arcsec, 1e-6*arcsec) {
			t.Errorf("round trip %v: got %v", arcsec, got)
		}
	}
	if ChordForArcsec(0) != 0 {
		t.Errorf("want 0 chord for 0 radius")
	}
	if ChordForArcsec(200*ArcsecPerDegree) != 2 {
		t.Errorf("want chord clamped to 2")
	}
	if got := ChordToArcsec(2.0000001); !almost(got, 180*ArcsecPerDegree, 1e-6) {
		t.Errorf("want clamped half circle, got %v", got)
	}
}

func TestCap_ContainsCenterAndEdge(t *testing.T) {
	center := Position{RA: 5, Dec: 5}
	c := Cap(center, 3600)
	if !c.ContainsPoint(center.Point()) {
		t.Fatal("cap must contain its center")
	}
	if !c.ContainsPoint(Position{RA: 5, Dec: 5.999}.Point()) {
		t.Fatal("cap must contain a point just inside the radius")
	}
	if c.ContainsPoint(Position{RA: 5, Dec: 6.01}.Point()) {
		t.Fatal("cap must not contain a point outside the radius")
	}
}

func TestProperty_Separation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("separation is symmetric", prop.ForAll(
		func(ra1, dec1, ra2, dec2 float64) bool {
			a, b := Position{RA: ra1, Dec: dec1}, Position{RA: ra2, Dec: dec2}
			return almost(Separation(a, b), Separation(b, a), 1e-6)
		},
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
	))

	properties.Property("separation is within [0, 180 deg]", prop.ForAll(
		func(ra1, dec1, ra2, dec2 float64) bool {
			d := Separation(Position{RA: ra1, Dec: dec1}, Position{RA: ra2, Dec: dec2})
			return d >= 0 && d <= 180*ArcsecPerDegree+1e-6
		},
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
	))

	properties.Property("triangle inequality holds", prop.ForAll(
		func(ra1, dec1, ra2, dec2, ra3, dec3 float64) bool {
			a := Position{RA: ra1, Dec: dec1}
			b := Position{RA: ra2, Dec: dec2}
			c := Position{RA: ra3, Dec: dec3}
			return Separation(a, c) <= Separation(a, b)+Separation(b, c)+1e-6
		},
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
	))

	properties.Property("shifting ra by 360 deg does not move the point", prop.ForAll(
		func(ra, dec float64) bool {
			a := Position{RA: ra, Dec: dec}
			b := Position{RA: ra + 360, Dec: dec}
			return Separation(a, b) < 1e-6
		},
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
	))

	properties.Property("vector chord agrees with separation", prop.ForAll(
		func(ra1, dec1, ra2, dec2 float64) bool {
			a, b := Position{RA: ra1, Dec: dec1}, Position{RA: ra2, Dec: dec2}
			if Separation(a, b) > 150*ArcsecPerDegree {
				return true // asin is ill-conditioned near antipodes
			}
			va, vb := ToVector(a), ToVector(b)
			var sum float64
			for i := range va {
				d := float64(va[i]) - float64(vb[i])
				sum += d * d
			}
			// float32 vectors carry ~1e-7 relative error: allow a fraction of an arcsecond.
			return almost(ChordToArcsec(math.Sqrt(sum)), Separation(a, b), 0.5)
		},
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
		gen.Float64Range(0, 359.999), gen.Float64Range(-90, 90),
	))

	properties.TestingRun(t)
}
