package domain

import "fmt"

// Bounds is an axis-aligned geographic bounding box (a map viewport).
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Validate rejects malformed and wraparound boxes. Viewports crossing the
// antimeridian or containing a pole are not supported; callers must split
// them before querying.
func (b Bounds) Validate() error {
	if b.North < b.South {
		return fmt.Errorf("bounds: north (%.6f) < south (%.6f)", b.North, b.South)
	}
	if b.East < b.West {
		return fmt.Errorf("bounds: east (%.6f) < west (%.6f), antimeridian viewports are not supported", b.East, b.West)
	}
	if b.North > 90 || b.South < -90 {
		return fmt.Errorf("bounds: latitude out of range [%.6f, %.6f]", b.South, b.North)
	}
	if b.East > 180 || b.West < -180 {
		return fmt.Errorf("bounds: longitude out of range [%.6f, %.6f]", b.West, b.East)
	}
	return nil
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// Width returns the longitudinal span in degrees.
func (b Bounds) Width() float64 { return b.East - b.West }

// Height returns the latitudinal span in degrees.
func (b Bounds) Height() float64 { return b.North - b.South }

// Neighbors returns the four adjacent same-size viewports (north, south,
// east, west), used for prefetch warming.
func (b Bounds) Neighbors() [4]Bounds {
	h := b.Height()
	w := b.Width()
	return [4]Bounds{
		{North: b.North + h, South: b.North, East: b.East, West: b.West},
		{North: b.South, South: b.South - h, East: b.East, West: b.West},
		{North: b.North, South: b.South, East: b.East + w, West: b.East},
		{North: b.North, South: b.South, East: b.West, West: b.West - w},
	}
}
