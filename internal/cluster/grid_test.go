package cluster

import (
	"math"
	"testing"

	"github.com/localelore/localelore/internal/core/domain"
)

func marker(id string, lat, lng float64) domain.FactMarker {
	return domain.FactMarker{ID: id, Title: id, Latitude: lat, Longitude: lng}
}

func TestGridCluster_HighZoomSingletons(t *testing.T) {
	markers := []domain.FactMarker{
		marker("f1", 43.263, -2.935),
		marker("f2", 43.2631, -2.9351),
		marker("f3", 43.2632, -2.9352),
	}

	clusters := GridCluster(markers, MaxClusterZoom, nil)
	if len(clusters) != 3 {
		t.Fatalf("expected 3 singleton clusters at max zoom, got %d", len(clusters))
	}
	for i, c := range clusters {
		if c.Count != 1 {
			t.Errorf("cluster %d: expected count 1, got %d", i, c.Count)
		}
		if c.Markers[0].ID != markers[i].ID {
			t.Errorf("cluster %d: expected marker %s, got %s", i, markers[i].ID, c.Markers[0].ID)
		}
	}
}

func TestGridCluster_MergesSameCell(t *testing.T) {
	// zoom 10 → 0.5° cells, min cluster size 2. The first two markers share a
	// cell; the third is far away and alone, so it gets dropped.
	markers := []domain.FactMarker{
		marker("f1", 43.26, -2.93),
		marker("f2", 43.27, -2.94),
		marker("f3", 48.85, 2.35),
	}

	clusters := GridCluster(markers, 10, nil)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Count != 2 {
		t.Errorf("expected cluster of 2, got %d", clusters[0].Count)
	}
}

func TestGridCluster_MinSizeAtLowZoom(t *testing.T) {
	// zoom 3 requires at least 4 markers per cell.
	markers := []domain.FactMarker{
		marker("f1", 43.1, -2.9),
		marker("f2", 43.2, -2.8),
		marker("f3", 43.3, -2.7),
	}

	if got := GridCluster(markers, 3, nil); len(got) != 0 {
		t.Fatalf("expected sub-minimum cell to be dropped, got %d clusters", len(got))
	}

	markers = append(markers, marker("f4", 43.4, -2.6))
	clusters := GridCluster(markers, 3, nil)
	if len(clusters) != 1 || clusters[0].Count != 4 {
		t.Fatalf("expected one cluster of 4, got %+v", clusters)
	}
}

func TestGridCluster_CentroidIsMean(t *testing.T) {
	markers := []domain.FactMarker{
		marker("f1", 43.0, -2.0),
		marker("f2", 43.2, -2.2),
		marker("f3", 43.4, -2.4),
		marker("f4", 43.1, -2.3),
	}

	clusters := GridCluster(markers, 3, nil)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}

	var sumLat, sumLng float64
	for _, m := range markers {
		sumLat += m.Latitude
		sumLng += m.Longitude
	}
	wantLng := sumLng / float64(len(markers))
	wantLat := sumLat / float64(len(markers))

	c := clusters[0]
	if math.Abs(c.Center[0]-wantLng) > 1e-9 {
		t.Errorf("centroid lng: want %v, got %v", wantLng, c.Center[0])
	}
	if math.Abs(c.Center[1]-wantLat) > 1e-9 {
		t.Errorf("centroid lat: want %v, got %v", wantLat, c.Center[1])
	}
}

func TestGridCluster_Deterministic(t *testing.T) {
	markers := []domain.FactMarker{
		marker("f1", 43.26, -2.93),
		marker("f2", 10.0, 10.0),
		marker("f3", 43.27, -2.94),
		marker("f4", 10.1, 10.1),
	}

	a := GridCluster(markers, 10, nil)
	b := GridCluster(markers, 10, nil)

	if len(a) != len(b) {
		t.Fatalf("runs disagree on cluster count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("cluster %d: IDs differ between runs: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}

	// Cells appear in first-occurrence order: f1's cell before f2's.
	if a[0].Markers[0].ID != "f1" {
		t.Errorf("expected first cluster seeded by f1, got %s", a[0].Markers[0].ID)
	}
}

func TestClusterID_StableUnderReordering(t *testing.T) {
	m1 := marker("f1", 43.26, -2.93)
	m2 := marker("f2", 43.27, -2.94)
	m3 := marker("f3", 43.28, -2.95)

	a := ClusterID([]domain.FactMarker{m1, m2, m3})
	b := ClusterID([]domain.FactMarker{m3, m1, m2})
	if a != b {
		t.Errorf("cluster ID depends on member order: %s vs %s", a, b)
	}

	c := ClusterID([]domain.FactMarker{m1, m2})
	if a == c {
		t.Error("different membership produced the same cluster ID")
	}
}

func TestGridCluster_BoundsFilter(t *testing.T) {
	bounds := domain.Bounds{North: 44, South: 43, East: -2, West: -3}
	markers := []domain.FactMarker{
		marker("in1", 43.26, -2.93),
		marker("in2", 43.27, -2.94),
		marker("out", 48.85, 2.35),
	}

	clusters := GridCluster(markers, 10, &bounds)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	for _, m := range clusters[0].Markers {
		if m.ID == "out" {
			t.Error("marker outside bounds leaked into a cluster")
		}
	}
}

func TestFilterBounds_EdgesInclusive(t *testing.T) {
	bounds := domain.Bounds{North: 44, South: 43, East: -2, West: -3}
	markers := []domain.FactMarker{
		marker("corner", 44, -2),
		marker("edge", 43, -2.5),
		marker("outside", 44.0001, -2),
	}

	got := FilterBounds(markers, bounds)
	if len(got) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(got))
	}
}
