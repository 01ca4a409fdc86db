package cluster

import (
	"math"

	"github.com/localelore/localelore/internal/core/domain"
)

// DefaultGreedyRadiusPx is the merge radius in screen pixels for the greedy
// variant, matching a typical marker icon footprint.
const DefaultGreedyRadiusPx = 60

const tileSize = 256

// projectPixel converts lng/lat to Web Mercator world-pixel coordinates at
// the given zoom.
func projectPixel(lat, lng float64, zoom int) (x, y float64) {
	scale := tileSize * math.Pow(2, float64(zoom))
	sin := math.Sin(lat * math.Pi / 180)
	x = (lng + 180) / 360 * scale
	y = (0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi) * scale
	return x, y
}

// GreedyCluster merges markers by pixel proximity instead of grid cells: the
// first unclustered marker in input order seeds a cluster and absorbs every
// remaining unclustered marker within radiusPx of the seed at the given zoom.
// Unlike the grid variant the result is order-dependent, and singleton
// clusters are kept. A radiusPx of zero or less uses DefaultGreedyRadiusPx.
func GreedyCluster(markers []domain.FactMarker, zoom int, radiusPx float64) []domain.MarkerCluster {
	if radiusPx <= 0 {
		radiusPx = DefaultGreedyRadiusPx
	}

	if zoom >= MaxClusterZoom {
		clusters := make([]domain.MarkerCluster, 0, len(markers))
		for _, m := range markers {
			clusters = append(clusters, newBuilder(m).cluster(zoom))
		}
		return clusters
	}

	type projected struct {
		x, y float64
	}
	pts := make([]projected, len(markers))
	for i, m := range markers {
		x, y := projectPixel(m.Latitude, m.Longitude, zoom)
		pts[i] = projected{x: x, y: y}
	}

	r2 := radiusPx * radiusPx
	claimed := make([]bool, len(markers))

	var clusters []domain.MarkerCluster
	for i := range markers {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		b := newBuilder(markers[i])
		for j := i + 1; j < len(markers); j++ {
			if claimed[j] {
				continue
			}
			dx := pts[j].x - pts[i].x
			dy := pts[j].y - pts[i].y
			if dx*dx+dy*dy <= r2 {
				claimed[j] = true
				b.add(markers[j])
			}
		}
		clusters = append(clusters, b.cluster(zoom))
	}
	return clusters
}
