package repository

import (
	"context"
	"fmt"

	"github.com/Houeta/batch-geocoder/internal/models"
)

// InitSchema creates the result table when it does not exist yet. The
// service owns its schema; there is no external migration tooling for a
// single table.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS geocode_results (
			address_key    TEXT PRIMARY KEY,
			latitude       DOUBLE PRECISION,
			longitude      DOUBLE PRECISION,
			precision_tag  TEXT NOT NULL DEFAULT '',
			failure_kind   TEXT,
			failure_detail TEXT NOT NULL DEFAULT '',
			resolved_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create geocode_results table: %w", err)
	}

	return nil
}

// SaveResult persists one canonical outcome for a normalized address.
// DO NOTHING on conflict mirrors the cache's first-writer-wins contract:
// an address already persisted keeps its original result.
func (r *Repository) SaveResult(ctx context.Context, key string, result models.GeocodeResult) error {
	query := `
		INSERT INTO geocode_results
			(address_key, latitude, longitude, precision_tag, failure_kind, failure_detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address_key) DO NOTHING;
	`

	var lat, lon *float64
	var kind *string
	var precision, detail string
	if result.OK() {
		lat, lon = &result.Coordinates.Latitude, &result.Coordinates.Longitude
		precision = result.Precision
	} else {
		k := string(result.Failure.Kind)
		kind = &k
		detail = result.Failure.Detail
	}

	_, err := r.db.Exec(ctx, query, key, lat, lon, precision, kind, detail)
	if err != nil {
		return fmt.Errorf("failed to save geocode result: %w", err)
	}

	r.log.DebugContext(ctx, "Persisted geocode result", "key", key, "ok", result.OK())

	return nil
}

// LoadRecent returns the most recently resolved outcomes, newest first,
// keyed by normalized address. Used to warm the in-memory cache at startup.
func (r *Repository) LoadRecent(ctx context.Context, limit int) (map[string]models.GeocodeResult, error) {
	query := `
		SELECT address_key, latitude, longitude, precision_tag, failure_kind, failure_detail
		FROM geocode_results
		ORDER BY resolved_at DESC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent geocode results: %w", err)
	}
	defer rows.Close()

	results := make(map[string]models.GeocodeResult)
	for rows.Next() {
		var key, precision, detail string
		var lat, lon *float64
		var kind *string
		if errScan := rows.Scan(&key, &lat, &lon, &precision, &kind, &detail); errScan != nil {
			return nil, fmt.Errorf("failed to scan geocode result row: %w", errScan)
		}

		switch {
		case lat != nil && lon != nil:
			results[key] = models.Success(models.Coordinates{Latitude: *lat, Longitude: *lon}, precision)
		case kind != nil:
			results[key] = models.Failed(models.FailureKind(*kind), detail)
		default:
			r.log.WarnContext(ctx, "Skipping malformed geocode result row", "key", key)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return results, nil
}
