package cluster

import "github.com/localelore/localelore/internal/core/domain"

// GeoJSON types for cluster rendering.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ToGeoJSON converts clusters to a GeoJSON FeatureCollection. Multi-marker
// clusters carry cluster/point-count properties; singletons expose the
// underlying fact so map popups can render without a second fetch.
func ToGeoJSON(clusters []domain.MarkerCluster) *FeatureCollection {
	features := make([]Feature, len(clusters))
	for i, c := range clusters {
		props := map[string]any{
			"cluster":     c.Count > 1,
			"cluster_id":  c.ID,
			"point_count": c.Count,
		}
		if c.Count == 1 && len(c.Markers) == 1 {
			m := c.Markers[0]
			props["fact_id"] = m.ID
			props["title"] = m.Title
			props["category"] = m.Category
			props["verified"] = m.Verified
			props["vote_score"] = m.VoteScore
		}
		features[i] = Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{c.Center[0], c.Center[1]},
			},
			Properties: props,
		}
	}
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}
