package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaflow/internal/media"
)

const jobColumns = "id, uuid, pipeline_name, pipeline_json, properties_json, priority, status, current_task, cancel_requested, error_message, output_dir, created_at, updated_at, last_heartbeat"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job              Job
		pipelineJSON     string
		propertiesJSON   sql.NullString
		statusStr        string
		cancelRequested  int
		errorMessage     sql.NullString
		outputDir        sql.NullString
		createdRaw       string
		updatedRaw       string
		lastHeartbeatRaw sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.UUID,
		&job.PipelineName,
		&pipelineJSON,
		&propertiesJSON,
		&job.Priority,
		&statusStr,
		&job.CurrentTask,
		&cancelRequested,
		&errorMessage,
		&outputDir,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pipelineJSON), &job.Pipeline); err != nil {
		return nil, fmt.Errorf("decode pipeline of job %d: %w", job.ID, err)
	}
	job.Properties = unmarshalProperties(propertiesJSON.String)
	job.Status = Status(statusStr)
	job.CancelRequested = cancelRequested != 0
	job.ErrorMessage = errorMessage.String
	job.OutputDir = outputDir.String
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return &job, nil
}

// CreateJob validates the pipeline snapshot and inserts the job with its
// media in one transaction.
func (s *Store) CreateJob(ctx context.Context, req NewJob) (*Job, error) {
	if err := req.Pipeline.Validate(); err != nil {
		return nil, err
	}
	if len(req.Media) == 0 {
		return nil, errors.New("job has no media")
	}
	pipelineJSON, err := json.Marshal(req.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline: %w", err)
	}
	properties, err := marshalProperties(req.Properties)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		timestamp := nowString()
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO jobs (
                uuid, pipeline_name, pipeline_json, properties_json, priority, status,
                current_task, cancel_requested, output_dir, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`,
			uuid.NewString(),
			req.Pipeline.Name,
			string(pipelineJSON),
			properties,
			req.Priority,
			StatusPending,
			nullableString(req.OutputDir),
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for _, m := range req.Media {
			path := strings.TrimSpace(m.Path)
			if path == "" {
				return errors.New("media path is empty")
			}
			mediaProps, err := marshalProperties(m.Properties)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO media (job_id, path, media_type, properties_json) VALUES (?, ?, ?, ?)`,
				id,
				path,
				media.KindUnknown,
				mediaProps,
			); err != nil {
				return fmt.Errorf("insert media: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier. A missing job yields nil without error.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetJobByUUID fetches a job by its external identifier.
func (s *Store) GetJobByUUID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE uuid = ?`, strings.TrimSpace(id))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job by uuid: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs filtered by status set (or all jobs when no status is provided).
func (s *Store) ListJobs(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, statusArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateJob persists the mutable lifecycle fields of a job.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, current_task = ?, error_message = ?, output_dir = ?,
             updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		job.Status,
		job.CurrentTask,
		nullableString(job.ErrorMessage),
		nullableString(job.OutputDir),
		formatTime(job.UpdatedAt),
		nullableTime(job.LastHeartbeat),
		job.ID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// ClaimNext atomically moves the highest-priority pending job to in_progress
// and returns it. It returns nil when nothing is pending.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	var id int64
	err := retryOnBusy(ctx, func() error {
		timestamp := nowString()
		return s.db.QueryRowContext(
			ctx,
			`UPDATE jobs
             SET status = ?, last_heartbeat = ?, updated_at = ?
             WHERE id = (
                 SELECT id FROM jobs
                 WHERE status = ? AND cancel_requested = 0
                 ORDER BY priority DESC, id
                 LIMIT 1
             ) AND status = ?
             RETURNING id`,
			StatusInProgress,
			timestamp,
			timestamp,
			StatusPending,
			StatusPending,
		).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return s.GetJob(ctx, id)
}

// RequestCancel marks a job for cancellation. Pending jobs are cancelled
// immediately; in-progress jobs stop at the next task boundary. It reports
// whether a non-terminal job was found.
func (s *Store) RequestCancel(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET cancel_requested = 1,
             status = CASE status WHEN ? THEN ? ELSE status END,
             error_message = CASE status WHEN ? THEN ? ELSE error_message END,
             updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusPending, StatusCancelled,
		StatusPending, CancelReason,
		nowString(),
		id,
		StatusPending, StatusInProgress,
	)
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CancelRequested reports whether cancellation was requested for a job.
func (s *Store) CancelRequested(ctx context.Context, id int64) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ctx, `SELECT cancel_requested FROM jobs WHERE id = ?`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

// RemoveJob deletes a job and, through cascades, its media, tracks and warnings.
func (s *Store) RemoveJob(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes every job in a terminal status.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	terminal := []Status{StatusComplete, StatusCompleteWithWarnings, StatusCompleteWithErrors, StatusError, StatusCancelled}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM jobs WHERE status IN (`+makePlaceholders(len(terminal))+`)`,
		statusArgs(terminal)...,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished jobs: %w", err)
	}
	return res.RowsAffected()
}
