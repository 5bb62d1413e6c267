package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mr1hm/hazardwatch/internal/models"
)

func (s *SQLiteDB) FindCandidateEvents(ctx context.Context, q CandidateQuery) ([]*models.DisasterEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, hazard_type, status, start_time, last_updated,
			latitude, longitude, severity, report_count
		FROM events
		WHERE hazard_type = ?
			AND last_updated >= ?
			AND start_time <= ?
			AND latitude BETWEEN ? AND ?
			AND longitude BETWEEN ? AND ?
		ORDER BY last_updated DESC`,
		q.HazardType, q.From.UTC(), q.To.UTC(),
		q.Box.MinLat, q.Box.MaxLat, q.Box.MinLon, q.Box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("error querying candidate events: %w", err)
	}
	defer rows.Close()

	var events []*models.DisasterEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (s *SQLiteDB) CreateEvent(ctx context.Context, e *models.DisasterEvent) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (title, hazard_type, status, start_time, last_updated,
			latitude, longitude, severity, report_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.HazardType, string(e.Status), e.StartTime.UTC(), e.LastUpdated.UTC(),
		e.Latitude, e.Longitude, nullInt(e.Severity), e.ReportCount)
	if err != nil {
		return fmt.Errorf("error inserting event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inserted event id: %w", err)
	}
	e.ID = id
	return nil
}

func (s *SQLiteDB) LinkObservation(ctx context.Context, e *models.DisasterEvent, o *models.Observation) error {
	if e.ID == 0 {
		return fmt.Errorf("cannot link observation %d: event has no id", o.ID)
	}

	newCount := e.ReportCount + 1
	newLastUpdated := e.LastUpdated
	if o.Timestamp.After(newLastUpdated) {
		newLastUpdated = o.Timestamp
	}
	newSeverity := maxSeverity(e.Severity, o.Severity)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE observations SET event_id = ? WHERE id = ?`, e.ID, o.ID)
	if err != nil {
		return fmt.Errorf("error linking observation %d: %w", o.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("observation %d: %w", o.ID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE events SET report_count = ?, last_updated = ?, severity = ?
		WHERE id = ?`,
		newCount, newLastUpdated.UTC(), nullInt(newSeverity), e.ID)
	if err != nil {
		return fmt.Errorf("error updating event %d rollup: %w", e.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing link: %w", err)
	}

	e.ReportCount = newCount
	e.LastUpdated = newLastUpdated
	e.Severity = newSeverity
	o.EventID = &e.ID
	return nil
}

func (s *SQLiteDB) GetEvent(ctx context.Context, id int64) (*models.DisasterEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, hazard_type, status, start_time, last_updated,
			latitude, longitude, severity, report_count
		FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching event %d: %w", id, err)
	}
	return e, nil
}

func scanEvent(row rowScanner) (*models.DisasterEvent, error) {
	var (
		e      models.DisasterEvent
		status string
		sev    sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Title, &e.HazardType, &status, &e.StartTime,
		&e.LastUpdated, &e.Latitude, &e.Longitude, &sev, &e.ReportCount)
	if err != nil {
		return nil, err
	}
	e.Status = models.EventStatus(status)
	if sev.Valid {
		v := int(sev.Int64)
		e.Severity = &v
	}
	return &e, nil
}

// maxSeverity treats nil as 0 for the comparison but stays nil when neither
// comparand is set.
func maxSeverity(a, b *int) *int {
	if a == nil && b == nil {
		return nil
	}
	av, bv := 0, 0
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	if av >= bv {
		v := av
		return &v
	}
	v := bv
	return &v
}
