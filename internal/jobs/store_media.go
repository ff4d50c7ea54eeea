package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediaflow/internal/media"
)

const mediaColumns = "id, job_id, path, mime_type, media_type, frame_count, fps, duration_ms, width, height, properties_json, markup_path, failed, error_message"

func scanMedia(scanner interface{ Scan(dest ...any) error }) (*Media, error) {
	var (
		m              Media
		mimeType       sql.NullString
		kind           string
		propertiesJSON sql.NullString
		markupPath     sql.NullString
		failed         int
		errorMessage   sql.NullString
	)
	if err := scanner.Scan(
		&m.ID,
		&m.JobID,
		&m.Path,
		&mimeType,
		&kind,
		&m.FrameCount,
		&m.FPS,
		&m.DurationMs,
		&m.Width,
		&m.Height,
		&propertiesJSON,
		&markupPath,
		&failed,
		&errorMessage,
	); err != nil {
		return nil, err
	}
	m.MIMEType = mimeType.String
	m.Type = media.ParseKind(kind)
	m.Properties = unmarshalProperties(propertiesJSON.String)
	m.MarkupPath = markupPath.String
	m.Failed = failed != 0
	m.ErrorMessage = errorMessage.String
	return &m, nil
}

// MediaForJob returns the media of a job in submission order.
func (s *Store) MediaForJob(ctx context.Context, jobID int64) ([]*Media, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	var out []*Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMedia fetches one medium. A missing medium yields nil without error.
func (s *Store) GetMedia(ctx context.Context, id int64) (*Media, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// UpdateMedia persists inspection results, markup output and failure state.
func (s *Store) UpdateMedia(ctx context.Context, m *Media) error {
	if m == nil {
		return errors.New("media is nil")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE media
         SET mime_type = ?, media_type = ?, frame_count = ?, fps = ?, duration_ms = ?,
             width = ?, height = ?, markup_path = ?, failed = ?, error_message = ?
         WHERE id = ?`,
		nullableString(m.MIMEType),
		m.Type,
		m.FrameCount,
		m.FPS,
		m.DurationMs,
		m.Width,
		m.Height,
		nullableString(m.MarkupPath),
		boolToInt(m.Failed),
		nullableString(m.ErrorMessage),
		m.ID,
	); err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	return nil
}
