package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AddWarning records a warning against a job. Blank severities default to
// SeverityWarning.
func (s *Store) AddWarning(ctx context.Context, w Warning) error {
	if w.Severity == "" {
		w.Severity = SeverityWarning
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO job_warnings (job_id, media_id, severity, code, message, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		w.JobID,
		nullableID(w.MediaID),
		w.Severity,
		strings.TrimSpace(w.Code),
		strings.TrimSpace(w.Message),
		formatTime(w.CreatedAt),
	); err != nil {
		return fmt.Errorf("add warning: %w", err)
	}
	return nil
}

// Warnings returns the warnings of a job in the order they were recorded.
func (s *Store) Warnings(ctx context.Context, jobID int64) ([]Warning, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, job_id, media_id, severity, code, message, created_at
         FROM job_warnings WHERE job_id = ? ORDER BY id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var out []Warning
	for rows.Next() {
		var (
			w          Warning
			mediaID    sql.NullInt64
			severity   string
			createdRaw string
		)
		if err := rows.Scan(&w.ID, &w.JobID, &mediaID, &severity, &w.Code, &w.Message, &createdRaw); err != nil {
			return nil, err
		}
		w.MediaID = mediaID.Int64
		w.Severity = Severity(severity)
		if created, err := parseTimeString(createdRaw); err == nil {
			w.CreatedAt = created
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CountWarnings totals the warnings of a job by severity.
func (s *Store) CountWarnings(ctx context.Context, jobID int64) (WarningCounts, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT severity, COUNT(1) FROM job_warnings WHERE job_id = ? GROUP BY severity`,
		jobID,
	)
	if err != nil {
		return WarningCounts{}, fmt.Errorf("count warnings: %w", err)
	}
	defer rows.Close()

	var counts WarningCounts
	for rows.Next() {
		var (
			severity Severity
			count    int
		)
		if err := rows.Scan(&severity, &count); err != nil {
			return WarningCounts{}, err
		}
		if severity == SeverityError {
			counts.Errors += count
		} else {
			counts.Warnings += count
		}
	}
	return counts, rows.Err()
}
