package geom

import "testing"

func TestNewEnvelopeIsEmpty(t *testing.T) {
	if NewEnvelope().IsInit() {
		t.Fatal("sentinel envelope reported as initialised")
	}
	if !EnvelopeOf(-10, 20, 30, -5).IsInit() {
		t.Fatal("real envelope reported as empty")
	}
}

func TestIsInitPartialSentinel(t *testing.T) {
	// A single coordinate still at its sentinel keeps the box uninitialised.
	e := EnvelopeOf(-10, 20, 30, 90)
	if e.IsInit() {
		t.Error("bottom still at sentinel")
	}
}

func TestExtend(t *testing.T) {
	a := EnvelopeOf(0, 10, 10, 0)
	b := EnvelopeOf(-5, 3, 4, -2)
	got := a.Extend(b)
	want := EnvelopeOf(-5, 10, 10, -2)
	if !got.Equal(want) {
		t.Errorf("Extend = %+v, want %+v", got, want)
	}
	if !a.Extend(a).Equal(a) {
		t.Error("Extend is not idempotent")
	}
	if !NewEnvelope().Extend(a).Equal(a) {
		t.Error("extending the empty envelope should yield the other box")
	}
}

func TestContainsAndIntersects(t *testing.T) {
	geo := EnvelopeOf(0, 10, 10, 0)
	px := EnvelopeOf(0, 0, 10, 10)
	for _, e := range []Envelope{geo, px} {
		if !e.Contains(Point{5, 5}) || e.Contains(Point{11, 5}) {
			t.Errorf("Contains wrong for %+v", e)
		}
	}
	if !geo.Intersects(EnvelopeOf(9, 20, 30, 9)) {
		t.Error("overlapping corners should intersect")
	}
	if geo.Intersects(EnvelopeOf(11, 20, 30, 11)) {
		t.Error("disjoint boxes should not intersect")
	}
}
