package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/localelore/localelore/internal/core/domain"
)

// FactRepo implements ports.FactRepository with pgx.
type FactRepo struct {
	db *DB
}

// NewFactRepo creates a new FactRepo.
func NewFactRepo(db *DB) *FactRepo {
	return &FactRepo{db: db}
}

// viewportLimit caps result rows by zoom: broad views get fewer rows.
func viewportLimit(zoom int) int {
	switch {
	case zoom < 8:
		return 200
	case zoom < 10:
		return 500
	default:
		return 1000
	}
}

const factColumns = `
	id, title, COALESCE(content, ''), latitude, longitude,
	COALESCE(category_id::text, ''), COALESCE(author_id::text, ''), COALESCE(author_name, ''),
	status, vote_count_up, vote_count_down, COALESCE(metadata, '{}'), created_at`

func scanFact(row pgx.Row) (*domain.Fact, error) {
	var f domain.Fact
	err := row.Scan(
		&f.ID, &f.Title, &f.Content, &f.Latitude, &f.Longitude,
		&f.CategoryID, &f.AuthorID, &f.AuthorName,
		&f.Status, &f.VoteCountUp, &f.VoteCountDown, &f.Metadata, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindInViewport returns facts inside the bounding box, best-scored first,
// capped by a zoom-dependent limit. This repository owns the bounds
// predicate; rows with null coordinates are excluded by the query.
func (r *FactRepo) FindInViewport(ctx context.Context, bounds domain.Bounds, zoom int) ([]domain.Fact, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+factColumns+`
		FROM facts
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		ORDER BY (vote_count_up - vote_count_down) DESC
		LIMIT $5
	`, bounds.South, bounds.North, bounds.West, bounds.East, viewportLimit(zoom))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFacts(rows)
}

func collectFacts(rows pgx.Rows) ([]domain.Fact, error) {
	var facts []domain.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, *f)
	}
	return facts, rows.Err()
}

// GetByID returns a fact by UUID.
func (r *FactRepo) GetByID(ctx context.Context, id string) (*domain.Fact, error) {
	return scanFact(r.db.Pool.QueryRow(ctx, `
		SELECT `+factColumns+`
		FROM facts WHERE id = $1
	`, id))
}

// Insert stores a new fact and fills in its generated ID and timestamp.
func (r *FactRepo) Insert(ctx context.Context, f *domain.Fact) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO facts (title, content, latitude, longitude, category_id, author_id, author_name, status, metadata)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7, $8, $9)
		RETURNING id, created_at
	`, f.Title, f.Content, f.Latitude, f.Longitude, f.CategoryID, f.AuthorID,
		f.AuthorName, f.Status, f.Metadata).Scan(&f.ID, &f.CreatedAt)
}

// UpsertBatch inserts many facts using pgx.Batch (seeder path).
func (r *FactRepo) UpsertBatch(ctx context.Context, facts []domain.Fact) error {
	batch := &pgx.Batch{}
	for _, f := range facts {
		batch.Queue(`
			INSERT INTO facts (id, title, content, latitude, longitude, category_id, author_id, author_name, status, metadata)
			VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5,
			        NULLIF($6, '')::uuid, NULLIF($7, '')::uuid, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, content = EXCLUDED.content,
			    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			    status = EXCLUDED.status, metadata = EXCLUDED.metadata
		`, f.ID, f.Title, f.Content, f.Latitude, f.Longitude,
			f.CategoryID, f.AuthorID, f.AuthorName, f.Status, f.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range facts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Vote bumps a vote counter and returns the updated fact.
func (r *FactRepo) Vote(ctx context.Context, id, direction string) (*domain.Fact, error) {
	column := "vote_count_up"
	if direction == domain.VoteDown {
		column = "vote_count_down"
	}
	return scanFact(r.db.Pool.QueryRow(ctx, `
		UPDATE facts SET `+column+` = `+column+` + 1
		WHERE id = $1
		RETURNING `+factColumns+`
	`, id))
}

// SetStatus transitions a fact's moderation status.
func (r *FactRepo) SetStatus(ctx context.Context, id, status string) (*domain.Fact, error) {
	return scanFact(r.db.Pool.QueryRow(ctx, `
		UPDATE facts SET status = $2
		WHERE id = $1
		RETURNING `+factColumns+`
	`, id, status))
}

// Trending returns the highest-scored facts overall.
func (r *FactRepo) Trending(ctx context.Context, limit int) ([]domain.Fact, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+factColumns+`
		FROM facts
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY (vote_count_up - vote_count_down) DESC, created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFacts(rows)
}
