package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/localelore/localelore/internal/adapters/http"
	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/core/usecases"
	"github.com/localelore/localelore/internal/offload"
)

// ---- Mock repositories ----

type mockFactRepo struct {
	findInViewportFn func(ctx context.Context, bounds domain.Bounds, zoom int) ([]domain.Fact, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.Fact, error)
	insertFn         func(ctx context.Context, f *domain.Fact) error
	voteFn           func(ctx context.Context, id, direction string) (*domain.Fact, error)
	setStatusFn      func(ctx context.Context, id, status string) (*domain.Fact, error)
	trendingFn       func(ctx context.Context, limit int) ([]domain.Fact, error)
}

func (m *mockFactRepo) FindInViewport(ctx context.Context, bounds domain.Bounds, zoom int) ([]domain.Fact, error) {
	if m.findInViewportFn != nil {
		return m.findInViewportFn(ctx, bounds, zoom)
	}
	return nil, nil
}
func (m *mockFactRepo) GetByID(ctx context.Context, id string) (*domain.Fact, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}
func (m *mockFactRepo) Insert(ctx context.Context, f *domain.Fact) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, f)
	}
	f.ID = "new-id"
	return nil
}
func (m *mockFactRepo) UpsertBatch(ctx context.Context, f []domain.Fact) error { return nil }
func (m *mockFactRepo) Vote(ctx context.Context, id, direction string) (*domain.Fact, error) {
	if m.voteFn != nil {
		return m.voteFn(ctx, id, direction)
	}
	return nil, errors.New("not found")
}
func (m *mockFactRepo) SetStatus(ctx context.Context, id, status string) (*domain.Fact, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil, errors.New("not found")
}
func (m *mockFactRepo) Trending(ctx context.Context, limit int) ([]domain.Fact, error) {
	if m.trendingFn != nil {
		return m.trendingFn(ctx, limit)
	}
	return nil, nil
}

type mockCategoryRepo struct {
	listFn func(ctx context.Context) ([]domain.Category, error)
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockRewardRepo struct {
	getByCodeFn func(ctx context.Context, code string) (*domain.Reward, error)
}

func (m *mockRewardRepo) Create(ctx context.Context, r *domain.Reward) error { return nil }
func (m *mockRewardRepo) GetByCode(ctx context.Context, code string) (*domain.Reward, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, errors.New("not found")
}
func (m *mockRewardRepo) Revoke(ctx context.Context, code string) error { return nil }
func (m *mockRewardRepo) Delete(ctx context.Context, code string) error { return nil }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(t *testing.T, factRepo *mockFactRepo, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	if factRepo == nil {
		factRepo = &mockFactRepo{}
	}
	viewports := usecases.NewViewportService(factRepo, usecases.ViewportConfig{})
	t.Cleanup(viewports.Close)

	d := &handler.Dependencies{
		Viewports:      viewports,
		Facts:          usecases.NewFactService(factRepo, nil, nil, viewports),
		Categories:     usecases.NewCategoryService(&mockCategoryRepo{}, nil),
		Rewards:        usecases.NewRewardService(&mockRewardRepo{}, factRepo),
		Offload:        offload.New(false, 0),
		GreedyRadiusPx: 60,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func viewportQuery() string {
	return "north=43.5&south=43.0&east=-2.5&west=-3.0&zoom=12"
}

func sampleFacts() []domain.Fact {
	return []domain.Fact{
		{ID: "f1", Title: "Hidden fountain", Latitude: 43.26, Longitude: -2.93,
			Status: domain.FactStatusVerified, VoteCountUp: 5},
		{ID: "f2", Title: "Old smugglers' tunnel", Latitude: 43.27, Longitude: -2.94},
	}
}

// ---- Viewport handler tests ----

func TestViewportFacts_Success(t *testing.T) {
	repo := &mockFactRepo{
		findInViewportFn: func(ctx context.Context, b domain.Bounds, zoom int) ([]domain.Fact, error) {
			return sampleFacts(), nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	req := httptest.NewRequest("GET", "/v1/facts?"+viewportQuery(), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Markers []domain.FactMarker `json:"markers"`
		Count   int                 `json:"count"`
		Zoom    int                 `json:"zoom"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 2 || len(result.Markers) != 2 {
		t.Errorf("expected 2 markers, got count=%d len=%d", result.Count, len(result.Markers))
	}
	if result.Zoom != 12 {
		t.Errorf("expected zoom 12, got %d", result.Zoom)
	}
	if !result.Markers[0].Verified {
		t.Error("verified fact should map to a verified marker")
	}
}

func TestViewportFacts_MissingParams(t *testing.T) {
	app := setupApp(makeDeps(t, nil))

	req := httptest.NewRequest("GET", "/v1/facts?north=43.5&south=43.0&east=-2.5", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestViewportFacts_InvalidBounds(t *testing.T) {
	app := setupApp(makeDeps(t, nil))

	// East < west: antimeridian viewports are rejected up front.
	req := httptest.NewRequest("GET", "/v1/facts?north=10&south=0&east=170&west=179&zoom=8", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestViewportFacts_SourceErrorDegradesToEmpty(t *testing.T) {
	repo := &mockFactRepo{
		findInViewportFn: func(ctx context.Context, b domain.Bounds, zoom int) ([]domain.Fact, error) {
			return nil, errors.New("db down")
		},
	}
	app := setupApp(makeDeps(t, repo))

	req := httptest.NewRequest("GET", "/v1/facts?"+viewportQuery(), nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("viewport reads degrade, expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 0 {
		t.Errorf("expected empty result on source failure, got %d", result.Count)
	}
}

// ---- Cluster handler tests ----

func TestClusters_Grid(t *testing.T) {
	repo := &mockFactRepo{
		findInViewportFn: func(ctx context.Context, b domain.Bounds, zoom int) ([]domain.Fact, error) {
			return sampleFacts(), nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	req := httptest.NewRequest("GET", "/v1/facts/clusters?"+viewportQuery(), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Clusters []domain.MarkerCluster `json:"clusters"`
		Algo     string                 `json:"algo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Algo != "grid" {
		t.Errorf("expected default algo grid, got %s", result.Algo)
	}
	// Both sample facts share a 0.25° cell at zoom 12.
	if len(result.Clusters) != 1 || result.Clusters[0].Count != 2 {
		t.Errorf("expected one cluster of 2, got %+v", result.Clusters)
	}
}

func TestClusters_UnknownAlgo(t *testing.T) {
	app := setupApp(makeDeps(t, nil))

	req := httptest.NewRequest("GET", "/v1/facts/clusters?"+viewportQuery()+"&algo=kmeans", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGeoJSON_Success(t *testing.T) {
	repo := &mockFactRepo{
		findInViewportFn: func(ctx context.Context, b domain.Bounds, zoom int) ([]domain.Fact, error) {
			return sampleFacts(), nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	req := httptest.NewRequest("GET", "/v1/facts/geojson?"+viewportQuery(), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "geo+json") {
		t.Errorf("expected geo+json content type, got %s", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) == 0 {
		t.Error("expected at least one feature")
	}
}

// ---- Fact CRUD tests ----

func TestSubmitFact_Success(t *testing.T) {
	app := setupApp(makeDeps(t, &mockFactRepo{}))

	body := strings.NewReader(`{"title":"Hidden fountain","latitude":43.26,"longitude":-2.93}`)
	req := httptest.NewRequest("POST", "/v1/facts", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var fact domain.Fact
	if err := json.NewDecoder(resp.Body).Decode(&fact); err != nil {
		t.Fatal(err)
	}
	if fact.ID != "new-id" {
		t.Errorf("expected repo-assigned ID, got %q", fact.ID)
	}
	if fact.Status != domain.FactStatusPending {
		t.Errorf("expected pending status, got %s", fact.Status)
	}
}

func TestSubmitFact_MissingTitle(t *testing.T) {
	app := setupApp(makeDeps(t, &mockFactRepo{}))

	body := strings.NewReader(`{"latitude":43.26,"longitude":-2.93}`)
	req := httptest.NewRequest("POST", "/v1/facts", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetFact(t *testing.T) {
	repo := &mockFactRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Fact, error) {
			if id != "f1" {
				return nil, errors.New("not found")
			}
			return &domain.Fact{ID: "f1", Title: "Hidden fountain"}, nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/facts/f1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/facts/missing", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestVoteFact(t *testing.T) {
	repo := &mockFactRepo{
		voteFn: func(ctx context.Context, id, direction string) (*domain.Fact, error) {
			return &domain.Fact{ID: id, VoteCountUp: 1, Latitude: 43.26, Longitude: -2.93}, nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	body := strings.NewReader(`{"direction":"up"}`)
	req := httptest.NewRequest("POST", "/v1/facts/f1/votes", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body = strings.NewReader(`{"direction":"sideways"}`)
	req = httptest.NewRequest("POST", "/v1/facts/f1/votes", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for a bad direction, got %d", resp.StatusCode)
	}
}

func TestVerifyFact(t *testing.T) {
	repo := &mockFactRepo{
		setStatusFn: func(ctx context.Context, id, status string) (*domain.Fact, error) {
			return &domain.Fact{ID: id, Status: status, Latitude: 43.26, Longitude: -2.93}, nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	req := httptest.NewRequest("POST", "/v1/facts/f1/verify", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fact domain.Fact
	json.NewDecoder(resp.Body).Decode(&fact)
	if fact.Status != domain.FactStatusVerified {
		t.Errorf("expected verified, got %s", fact.Status)
	}
}

func TestTrendingFacts(t *testing.T) {
	repo := &mockFactRepo{
		trendingFn: func(ctx context.Context, limit int) ([]domain.Fact, error) {
			return sampleFacts(), nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/facts/trending", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 2 {
		t.Errorf("expected 2 trending facts, got %d", result.Count)
	}
}

func TestNearbyFacts(t *testing.T) {
	repo := &mockFactRepo{
		findInViewportFn: func(ctx context.Context, b domain.Bounds, zoom int) ([]domain.Fact, error) {
			return []domain.Fact{{ID: "f1", Latitude: 43.2601, Longitude: -2.9301}}, nil
		},
	}
	app := setupApp(makeDeps(t, repo))

	req := httptest.NewRequest("GET", "/v1/facts/nearby?lat=43.26&lng=-2.93&radius=500", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Facts []struct {
			ID        string  `json:"id"`
			DistanceM float64 `json:"distance_m"`
		} `json:"facts"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 1 || result.Facts[0].ID != "f1" {
		t.Fatalf("expected one nearby fact, got %+v", result)
	}
	if result.Facts[0].DistanceM <= 0 {
		t.Errorf("expected a positive distance, got %f", result.Facts[0].DistanceM)
	}

	req = httptest.NewRequest("GET", "/v1/facts/nearby?lat=43.26", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 without lng, got %d", resp.StatusCode)
	}
}

// ---- Category tests ----

func TestListCategories_Pagination(t *testing.T) {
	cats := make([]domain.Category, 5)
	for i := range cats {
		cats[i] = domain.Category{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Category %d", i)}
	}

	deps := makeDeps(t, nil, func(d *handler.Dependencies) {
		d.Categories = usecases.NewCategoryService(&mockCategoryRepo{
			listFn: func(ctx context.Context) ([]domain.Category, error) { return cats, nil },
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/categories?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Category `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 categories in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

// ---- Reward tests ----

func TestGetReward(t *testing.T) {
	deps := makeDeps(t, nil, func(d *handler.Dependencies) {
		d.Rewards = usecases.NewRewardService(&mockRewardRepo{
			getByCodeFn: func(ctx context.Context, code string) (*domain.Reward, error) {
				if code != "LL-abc123" {
					return nil, errors.New("not found")
				}
				return &domain.Reward{Code: code, AmountCents: 200}, nil
			},
		}, &mockFactRepo{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/rewards/LL-abc123", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/rewards/nope", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Health tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(t, nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_NotReadyWithoutDB(t *testing.T) {
	app := setupApp(makeDeps(t, nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 without a database, got %d", resp.StatusCode)
	}
}
