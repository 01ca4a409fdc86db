package domain

import "testing"

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  Bounds
		wantErr bool
	}{
		{"valid viewport", Bounds{North: 43.5, South: 43.0, East: -2.5, West: -3.0}, false},
		{"degenerate point", Bounds{North: 43, South: 43, East: -2, West: -2}, false},
		{"whole world", Bounds{North: 90, South: -90, East: 180, West: -180}, false},
		{"north below south", Bounds{North: 42, South: 43, East: -2, West: -3}, true},
		{"antimeridian wrap", Bounds{North: 10, South: 0, East: -170, West: 170}, true},
		{"latitude too high", Bounds{North: 91, South: 0, East: 10, West: 0}, true},
		{"latitude too low", Bounds{North: 0, South: -91, East: 10, West: 0}, true},
		{"longitude too east", Bounds{North: 10, South: 0, East: 181, West: 0}, true},
		{"longitude too west", Bounds{North: 10, South: 0, East: 0, West: -181}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{North: 44, South: 43, East: -2, West: -3}

	if !b.Contains(43.5, -2.5) {
		t.Error("interior point should be contained")
	}
	if !b.Contains(44, -2) {
		t.Error("corner should be contained (edges inclusive)")
	}
	if !b.Contains(43, -3) {
		t.Error("opposite corner should be contained")
	}
	if b.Contains(44.0001, -2.5) {
		t.Error("point north of the box should not be contained")
	}
	if b.Contains(43.5, -1.9999) {
		t.Error("point east of the box should not be contained")
	}
}

func TestBoundsNeighbors(t *testing.T) {
	b := Bounds{North: 44, South: 43, East: -2, West: -3}
	nbs := b.Neighbors()

	north, south, east, west := nbs[0], nbs[1], nbs[2], nbs[3]

	if north.South != b.North || north.North != 45 {
		t.Errorf("north neighbor misplaced: %+v", north)
	}
	if south.North != b.South || south.South != 42 {
		t.Errorf("south neighbor misplaced: %+v", south)
	}
	if east.West != b.East || east.East != -1 {
		t.Errorf("east neighbor misplaced: %+v", east)
	}
	if west.East != b.West || west.West != -4 {
		t.Errorf("west neighbor misplaced: %+v", west)
	}

	for i, nb := range nbs {
		if nb.Width() != b.Width() || nb.Height() != b.Height() {
			t.Errorf("neighbor %d changed size: %+v", i, nb)
		}
	}
}

func TestFactMarker(t *testing.T) {
	f := Fact{
		ID: "f1", Title: "t", Latitude: 43.26, Longitude: -2.93,
		CategoryID: "c1", Status: FactStatusVerified,
		VoteCountUp: 7, VoteCountDown: 2,
	}

	m := f.Marker()
	if !m.Verified {
		t.Error("verified fact should produce a verified marker")
	}
	if m.VoteScore != 5 {
		t.Errorf("expected vote score 5, got %d", m.VoteScore)
	}
	if m.Category != "c1" {
		t.Errorf("expected category c1, got %s", m.Category)
	}

	f.Status = FactStatusPending
	if f.Marker().Verified {
		t.Error("pending fact should not produce a verified marker")
	}
}
