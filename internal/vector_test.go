package internal

import (
	"math"
	"testing"
)

func TestDistanceToSimilarity(t *testing.T) {
	cases := []struct {
		distance, want float32
	}{
		{0, 1},
		{2, 0},
		{1, 0.5},
		{3, 0},  // clamp below
		{-1, 1}, // clamp above
	}
	for _, c := range cases {
		if got := distanceToSimilarity(c.distance); got != c.want {
			t.Errorf("distanceToSimilarity(%f) = %f, want %f", c.distance, got, c.want)
		}
	}
}

func TestL2Distance(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	if got := l2Distance(a, a); got != 0 {
		t.Errorf("distance to self should be 0, got %f", got)
	}

	want := float32(math.Sqrt2)
	if got := l2Distance(a, b); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.875, 0}
	decoded := decodeVector(encodeVector(vec))
	if len(decoded) != len(vec) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("index %d: %f != %f", i, decoded[i], vec[i])
		}
	}
}
