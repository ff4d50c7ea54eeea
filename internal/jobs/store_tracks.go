package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"mediaflow/internal/track"
)

// ReplaceTracks stores the tracks one task produced for one medium,
// discarding whatever an earlier run of the same task stored. Every track is
// validated first; nothing is written when any track is inconsistent.
func (s *Store) ReplaceTracks(ctx context.Context, jobID, mediaID int64, taskIndex int, tracks []track.Track) error {
	blobs := make([][]byte, len(tracks))
	for i := range tracks {
		if err := tracks[i].Validate(); err != nil {
			return fmt.Errorf("track %d of media %d: %w", i, mediaID, err)
		}
		data, err := json.Marshal(tracks[i])
		if err != nil {
			return fmt.Errorf("marshal track: %w", err)
		}
		blobs[i] = data
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`DELETE FROM tracks WHERE job_id = ? AND media_id = ? AND task_index = ?`,
			jobID, mediaID, taskIndex,
		); err != nil {
			return fmt.Errorf("clear tracks: %w", err)
		}
		for i, t := range tracks {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO tracks (
                    job_id, media_id, task_index, action_index, track_type,
                    start_frame, end_frame, start_time_ms, end_time_ms, confidence, track_json
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				jobID,
				mediaID,
				taskIndex,
				t.ActionIndex,
				t.Type,
				t.StartFrame,
				t.EndFrame,
				t.StartTimeMs,
				t.EndTimeMs,
				float64(t.Confidence),
				string(blobs[i]),
			); err != nil {
				return fmt.Errorf("insert track: %w", err)
			}
		}
		return nil
	})
}

// Tracks returns the tracks a task produced for a medium in canonical order.
func (s *Store) Tracks(ctx context.Context, jobID, mediaID int64, taskIndex int) ([]track.Track, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT track_json FROM tracks WHERE job_id = ? AND media_id = ? AND task_index = ? ORDER BY id`,
		jobID, mediaID, taskIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []track.Track
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var t track.Track
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode track: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, track.CompareTracks)
	return out, nil
}

// TrackCounts returns the number of stored tracks per task index of a job.
func (s *Store) TrackCounts(ctx context.Context, jobID int64) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_index, COUNT(1) FROM tracks WHERE job_id = ? GROUP BY task_index`, jobID)
	if err != nil {
		return nil, fmt.Errorf("track counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var task, count int
		if err := rows.Scan(&task, &count); err != nil {
			return nil, err
		}
		counts[task] = count
	}
	return counts, rows.Err()
}
