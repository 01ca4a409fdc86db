package cluster

import (
	"testing"

	"github.com/localelore/localelore/internal/core/domain"
)

func TestGreedyCluster_MergesWithinRadius(t *testing.T) {
	// Two markers a few meters apart collapse at city zoom; the third sits a
	// continent away.
	markers := []domain.FactMarker{
		marker("f1", 43.2630, -2.9350),
		marker("f2", 43.2631, -2.9351),
		marker("f3", 48.85, 2.35),
	}

	clusters := GreedyCluster(markers, 10, 60)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].Count != 2 {
		t.Errorf("expected seed cluster of 2, got %d", clusters[0].Count)
	}
	if clusters[1].Count != 1 {
		t.Errorf("expected distant singleton, got count %d", clusters[1].Count)
	}
}

func TestGreedyCluster_SeedIsFirstInInputOrder(t *testing.T) {
	markers := []domain.FactMarker{
		marker("f2", 43.2631, -2.9351),
		marker("f1", 43.2630, -2.9350),
	}

	clusters := GreedyCluster(markers, 10, 60)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Markers[0].ID != "f2" {
		t.Errorf("expected first input marker to seed, got %s", clusters[0].Markers[0].ID)
	}
}

func TestGreedyCluster_SingletonsKept(t *testing.T) {
	// Unlike the grid variant, greedy keeps lone markers.
	markers := []domain.FactMarker{
		marker("f1", 10, 10),
		marker("f2", 20, 20),
		marker("f3", 30, 30),
	}

	clusters := GreedyCluster(markers, 10, 60)
	if len(clusters) != 3 {
		t.Fatalf("expected 3 singletons, got %d", len(clusters))
	}
	for _, c := range clusters {
		if c.Count != 1 {
			t.Errorf("expected singleton, got count %d", c.Count)
		}
	}
}

func TestGreedyCluster_HighZoomSingletons(t *testing.T) {
	markers := []domain.FactMarker{
		marker("f1", 43.2630, -2.9350),
		marker("f2", 43.2630, -2.9350), // same spot
	}

	clusters := GreedyCluster(markers, MaxClusterZoom, 60)
	if len(clusters) != 2 {
		t.Fatalf("expected singletons at max zoom, got %d clusters", len(clusters))
	}
}

func TestGreedyCluster_DefaultRadius(t *testing.T) {
	markers := []domain.FactMarker{
		marker("f1", 43.2630, -2.9350),
		marker("f2", 43.2631, -2.9351),
	}

	a := GreedyCluster(markers, 10, 0)
	b := GreedyCluster(markers, 10, DefaultGreedyRadiusPx)
	if len(a) != len(b) {
		t.Errorf("zero radius should fall back to the default: %d vs %d clusters", len(a), len(b))
	}
}

func TestGreedyCluster_RadiusScalesWithZoom(t *testing.T) {
	// ~0.01° apart: merged when zoomed out, separate pins when zoomed in.
	markers := []domain.FactMarker{
		marker("f1", 43.260, -2.935),
		marker("f2", 43.270, -2.945),
	}

	if got := GreedyCluster(markers, 5, 60); len(got) != 1 {
		t.Errorf("zoom 5: expected merge, got %d clusters", len(got))
	}
	if got := GreedyCluster(markers, 13, 60); len(got) != 2 {
		t.Errorf("zoom 13: expected separate pins, got %d clusters", len(got))
	}
}
