package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/hazardwatch/internal/models"
)

const observationColumns = `id, source, source_event_id, hazard_type, title, description,
	latitude, longitude, depth_km, magnitude, severity, timestamp, trust_flag, status, event_id, created_at`

func (s *SQLiteDB) InsertBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (source, source_event_id, hazard_type, title, description,
			latitude, longitude, depth_km, magnitude, severity, timestamp, trust_flag, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(obs))
	for i, o := range obs {
		res, err := stmt.ExecContext(ctx,
			string(o.Source), o.SourceEventID, o.HazardType, o.Title, o.Description,
			o.Latitude, o.Longitude, nullFloat(o.DepthKm), nullFloat(o.Magnitude),
			nullInt(o.Severity), o.Timestamp.UTC(), o.TrustFlag, string(o.Status), o.CreatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("observation %s/%s: %w", o.Source, o.SourceEventID, ErrDuplicateKey)
			}
			return fmt.Errorf("error inserting observation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading inserted id: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing batch: %w", err)
	}

	// IDs are assigned only once the whole batch is durable.
	for i, o := range obs {
		o.ID = ids[i]
	}
	return nil
}

func (s *SQLiteDB) ExistingKeys(ctx context.Context, source models.Source, since time.Time) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_event_id FROM observations
		WHERE source = ? AND source_event_id != '' AND timestamp >= ?`,
		string(source), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying existing keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("error scanning key: %w", err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

func (s *SQLiteDB) KeyExists(ctx context.Context, source models.Source, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM observations WHERE source = ? AND source_event_id = ? LIMIT 1`,
		string(source), key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking key existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteDB) GetObservation(ctx context.Context, id int64) (*models.Observation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE id = ?`, id)
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("observation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching observation %d: %w", id, err)
	}
	return o, nil
}

func (s *SQLiteDB) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE observations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("error updating status for observation %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("observation %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteDB) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM observations WHERE event_id = ?`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting observations for event %d: %w", eventID, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (*models.Observation, error) {
	var (
		o       models.Observation
		source  string
		status  string
		title   sql.NullString
		desc    sql.NullString
		depth   sql.NullFloat64
		mag     sql.NullFloat64
		sev     sql.NullInt64
		eventID sql.NullInt64
	)
	err := row.Scan(&o.ID, &source, &o.SourceEventID, &o.HazardType, &title, &desc,
		&o.Latitude, &o.Longitude, &depth, &mag, &sev, &o.Timestamp, &o.TrustFlag,
		&status, &eventID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Source = models.Source(source)
	o.Status = models.Status(status)
	o.Title = title.String
	o.Description = desc.String
	if depth.Valid {
		o.DepthKm = &depth.Float64
	}
	if mag.Valid {
		o.Magnitude = &mag.Float64
	}
	if sev.Valid {
		v := int(sev.Int64)
		o.Severity = &v
	}
	if eventID.Valid {
		o.EventID = &eventID.Int64
	}
	return &o, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
