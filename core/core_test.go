package core

import "testing"

func TestIDGeneratorMonotonic(t *testing.T) {
	g := NewIDGenerator()
	if got := g.Next(); got != "ORD-000001" {
		t.Fatalf("expected ORD-000001, got %q", got)
	}
	if got := g.Next(); got != "ORD-000002" {
		t.Fatalf("expected ORD-000002, got %q", got)
	}
}

func TestIDGeneratorScopedPerInstance(t *testing.T) {
	a := NewIDGenerator()
	b := NewIDGenerator()
	a.Next()
	a.Next()
	if got := b.Next(); got != "ORD-000001" {
		t.Fatalf("expected independent generators, got %q", got)
	}
}

func TestPositionIsFlat(t *testing.T) {
	p := Position{Quantity: 1e-10}
	if !p.IsFlat() {
		t.Fatalf("expected quantity below epsilon to be flat")
	}
	p.Quantity = 0.5
	if p.IsFlat() {
		t.Fatalf("expected non-trivial quantity to not be flat")
	}
}

func TestDirectionString(t *testing.T) {
	cases := map[Direction]string{Long: "LONG", Short: "SHORT", Flat: "FLAT"}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Fatalf("Direction(%d).String() = %q, want %q", d, got, want)
		}
	}
}
