package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/localelore/localelore/internal/adapters/postgres"
	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/pkg/config"
	"github.com/localelore/localelore/internal/pkg/logging"
	"github.com/localelore/localelore/internal/pkg/metrics"
)

// seedFeature mirrors one GeoJSON feature in a seed file. Geometry must be a
// Point; properties carry the fact fields.
type seedFeature struct {
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // [lng, lat]
	} `json:"geometry"`
	Properties struct {
		ID         string         `json:"id"`
		Title      string         `json:"title"`
		Content    string         `json:"content"`
		CategoryID string         `json:"category_id"`
		AuthorID   string         `json:"author_id"`
		AuthorName string         `json:"author_name"`
		Status     string         `json:"status"`
		Metadata   map[string]any `json:"metadata"`
	} `json:"properties"`
}

type seedFile struct {
	Type     string        `json:"type"`
	Features []seedFeature `json:"features"`
}

const batchSize = 500

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: seeder <facts.geojson> [more.geojson ...]")
	}

	logging.Setup("seeder", "info", "text")

	cfg, err := config.Load("localelore-seeder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewFactRepo(db)

	total := 0
	for _, path := range os.Args[1:] {
		n, err := seedFromFile(ctx, repo, path)
		if err != nil {
			log.Fatalf("seed %s: %v", path, err)
		}
		total += n
	}

	slog.Info("seeding complete", "facts", total)
}

func seedFromFile(ctx context.Context, repo *postgres.FactRepo, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var fc seedFile
	if err := json.Unmarshal(data, &fc); err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	var batch []domain.Fact
	seeded := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := repo.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		metrics.FactsIngested.WithLabelValues(source).Add(float64(len(batch)))
		seeded += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, f := range fc.Features {
		if f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
			slog.Warn("skipping non-point feature", "file", source, "title", f.Properties.Title)
			continue
		}

		status := f.Properties.Status
		if status == "" {
			status = domain.FactStatusPending
		}

		batch = append(batch, domain.Fact{
			ID:         f.Properties.ID,
			Title:      f.Properties.Title,
			Content:    f.Properties.Content,
			Longitude:  f.Geometry.Coordinates[0],
			Latitude:   f.Geometry.Coordinates[1],
			CategoryID: f.Properties.CategoryID,
			AuthorID:   f.Properties.AuthorID,
			AuthorName: f.Properties.AuthorName,
			Status:     status,
			Metadata:   f.Properties.Metadata,
		})

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return seeded, err
			}
		}
	}

	if err := flush(); err != nil {
		return seeded, err
	}

	slog.Info("seeded file", "file", source, "facts", seeded)
	return seeded, nil
}
