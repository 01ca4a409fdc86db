// Package cluster reduces large marker sets to renderable aggregates.
//
// It is the single home of the clustering math: both the synchronous path
// and the offload worker call into this package, so the two can never drift.
package cluster

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/localelore/localelore/internal/core/domain"
)

// MaxClusterZoom is the zoom level at and above which clustering is a no-op:
// every marker renders as its own pin.
const MaxClusterZoom = 14

// gridSizeForZoom maps zoom bands to grid cell sizes in degrees. Coarser
// cells at low zoom, finer cells as the map zooms in.
func gridSizeForZoom(zoom int) float64 {
	switch {
	case zoom <= 2:
		return 10.0
	case zoom <= 4:
		return 5.0
	case zoom <= 6:
		return 2.0
	case zoom <= 8:
		return 1.0
	case zoom <= 10:
		return 0.5
	case zoom <= 12:
		return 0.25
	default:
		return 0.1
	}
}

// minClusterSizeForZoom is stricter at low zoom so that sparse world views
// don't show noise clusters of one or two markers.
func minClusterSizeForZoom(zoom int) int {
	switch {
	case zoom <= 4:
		return 4
	case zoom <= 8:
		return 3
	default:
		return 2
	}
}

type gridCell struct {
	x, y int
}

// builder accumulates one cluster with an incrementally maintained centroid.
// The running mean matches a from-scratch mean within floating-point tolerance.
type builder struct {
	markers []domain.FactMarker
	lng     float64
	lat     float64
	bounds  domain.Bounds
}

func newBuilder(m domain.FactMarker) *builder {
	return &builder{
		markers: []domain.FactMarker{m},
		lng:     m.Longitude,
		lat:     m.Latitude,
		bounds:  domain.Bounds{North: m.Latitude, South: m.Latitude, East: m.Longitude, West: m.Longitude},
	}
}

func (b *builder) add(m domain.FactMarker) {
	b.markers = append(b.markers, m)
	n := float64(len(b.markers))
	b.lng += (m.Longitude - b.lng) / n
	b.lat += (m.Latitude - b.lat) / n
	if m.Latitude > b.bounds.North {
		b.bounds.North = m.Latitude
	}
	if m.Latitude < b.bounds.South {
		b.bounds.South = m.Latitude
	}
	if m.Longitude > b.bounds.East {
		b.bounds.East = m.Longitude
	}
	if m.Longitude < b.bounds.West {
		b.bounds.West = m.Longitude
	}
}

func (b *builder) cluster(zoom int) domain.MarkerCluster {
	return domain.MarkerCluster{
		ID:      ClusterID(b.markers),
		Center:  [2]float64{b.lng, b.lat},
		Markers: b.markers,
		Count:   len(b.markers),
		Bounds:  b.bounds,
		Zoom:    zoom,
	}
}

// ClusterID derives a stable identifier from the sorted member IDs, so that
// identical membership always hashes to the identical ID across recomputation.
// Used as a render-diffing key downstream.
func ClusterID(markers []domain.FactMarker) string {
	ids := make([]string, len(markers))
	for i, m := range markers {
		ids[i] = m.ID
	}
	sort.Strings(ids)
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(ids, ",")))
}

// GridCluster buckets markers into a uniform lng/lat grid sized by zoom and
// merges each occupied cell into one cluster. At or above MaxClusterZoom every
// marker becomes its own singleton cluster. Cells holding fewer markers than
// the zoom's minimum cluster size are dropped. A non-nil bounds restricts the
// input to markers inside the box.
//
// Output is deterministic: cells appear in order of first marker occurrence,
// and membership is independent of map iteration order.
func GridCluster(markers []domain.FactMarker, zoom int, bounds *domain.Bounds) []domain.MarkerCluster {
	if bounds != nil {
		markers = FilterBounds(markers, *bounds)
	}

	if zoom >= MaxClusterZoom {
		clusters := make([]domain.MarkerCluster, 0, len(markers))
		for _, m := range markers {
			clusters = append(clusters, newBuilder(m).cluster(zoom))
		}
		return clusters
	}

	size := gridSizeForZoom(zoom)
	minSize := minClusterSizeForZoom(zoom)

	cells := make(map[gridCell]*builder)
	var order []gridCell
	for _, m := range markers {
		cell := gridCell{
			x: int(math.Floor(m.Longitude / size)),
			y: int(math.Floor(m.Latitude / size)),
		}
		if b, ok := cells[cell]; ok {
			b.add(m)
			continue
		}
		cells[cell] = newBuilder(m)
		order = append(order, cell)
	}

	clusters := make([]domain.MarkerCluster, 0, len(order))
	for _, cell := range order {
		b := cells[cell]
		if len(b.markers) < minSize {
			continue
		}
		clusters = append(clusters, b.cluster(zoom))
	}
	return clusters
}

// FilterBounds returns the markers whose coordinates fall inside bounds.
func FilterBounds(markers []domain.FactMarker, bounds domain.Bounds) []domain.FactMarker {
	out := make([]domain.FactMarker, 0, len(markers))
	for _, m := range markers {
		if bounds.Contains(m.Latitude, m.Longitude) {
			out = append(out, m)
		}
	}
	return out
}
