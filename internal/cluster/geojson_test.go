package cluster

import (
	"testing"

	"github.com/localelore/localelore/internal/core/domain"
)

func TestToGeoJSON(t *testing.T) {
	m1 := marker("f1", 43.26, -2.93)
	m1.Verified = true
	m1.VoteScore = 7

	clusters := []domain.MarkerCluster{
		{
			ID:      "abc",
			Center:  [2]float64{-2.93, 43.26},
			Markers: []domain.FactMarker{m1},
			Count:   1,
		},
		{
			ID:     "def",
			Center: [2]float64{-2.94, 43.27},
			Count:  5,
		},
	}

	fc := ToGeoJSON(clusters)
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}

	single := fc.Features[0]
	if single.Geometry.Type != "Point" {
		t.Errorf("expected Point geometry, got %s", single.Geometry.Type)
	}
	if single.Geometry.Coordinates[0] != -2.93 || single.Geometry.Coordinates[1] != 43.26 {
		t.Errorf("unexpected coordinates: %v", single.Geometry.Coordinates)
	}
	if single.Properties["cluster"] != false {
		t.Error("singleton should not be flagged as a cluster")
	}
	if single.Properties["fact_id"] != "f1" {
		t.Errorf("singleton should expose the fact, got %v", single.Properties["fact_id"])
	}
	if single.Properties["vote_score"] != 7 {
		t.Errorf("expected vote_score 7, got %v", single.Properties["vote_score"])
	}

	multi := fc.Features[1]
	if multi.Properties["cluster"] != true {
		t.Error("multi-marker feature should be flagged as a cluster")
	}
	if multi.Properties["point_count"] != 5 {
		t.Errorf("expected point_count 5, got %v", multi.Properties["point_count"])
	}
	if _, ok := multi.Properties["fact_id"]; ok {
		t.Error("multi-marker feature should not expose a single fact")
	}
}
