package sqlite

import (
	"database/sql"
	"fmt"

	"cleancut/internal/model"
	"cleancut/internal/timeline"
)

// JobRepository persists jobs and their computed ranges in SQLite.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new SQLite job repository.
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Insert adds a new job record and returns its ID.
func (r *JobRepository) Insert(job *model.Job) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO jobs (source_path, reference_path, status)
		VALUES (?, ?, ?)
	`, job.SourcePath, job.ReferencePath, model.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a job by its ID, or nil when it does not exist.
func (r *JobRepository) GetByID(id int64) (*model.Job, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var job model.Job
	err := r.db.Conn().QueryRow(`
		SELECT id, source_path, reference_path, output_path, status,
		       duration, frames_scanned, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id).Scan(&job.ID, &job.SourcePath, &job.ReferencePath, &job.OutputPath,
		&job.Status, &job.Duration, &job.FramesScanned, &job.Error,
		&job.CreatedAt, &job.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// List retrieves all jobs, newest first.
func (r *JobRepository) List() ([]model.Job, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, source_path, reference_path, output_path, status,
		       duration, frames_scanned, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var job model.Job
		if err := rows.Scan(&job.ID, &job.SourcePath, &job.ReferencePath, &job.OutputPath,
			&job.Status, &job.Duration, &job.FramesScanned, &job.Error,
			&job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateStatus transitions a job's lifecycle state. The error message is
// stored alongside failed states and cleared otherwise.
func (r *JobRepository) UpdateStatus(id int64, status model.JobStatus, errMsg string) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// SetResult records the scan outcome and output path for a completed job.
func (r *JobRepository) SetResult(id int64, outputPath string, duration float64, framesScanned int) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE jobs SET output_path = ?, duration = ?, frames_scanned = ?,
		       updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, outputPath, duration, framesScanned, id)
	if err != nil {
		return fmt.Errorf("failed to set job result: %w", err)
	}
	return nil
}

// SaveRanges replaces the stored detection and keep ranges of a job.
func (r *JobRepository) SaveRanges(jobID int64, detections []timeline.DetectionRange, keeps []timeline.KeepRange) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM detection_ranges WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to clear detection ranges: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM keep_ranges WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to clear keep ranges: %w", err)
	}

	for _, d := range detections {
		if _, err := tx.Exec(`
			INSERT INTO detection_ranges (job_id, start_sec, end_sec, confidence)
			VALUES (?, ?, ?, ?)
		`, jobID, d.Start, d.End, d.Confidence); err != nil {
			return fmt.Errorf("failed to insert detection range: %w", err)
		}
	}
	for _, k := range keeps {
		if _, err := tx.Exec(`
			INSERT INTO keep_ranges (job_id, start_sec, end_sec)
			VALUES (?, ?, ?)
		`, jobID, k.Start, k.End); err != nil {
			return fmt.Errorf("failed to insert keep range: %w", err)
		}
	}

	return tx.Commit()
}

// GetDetectionRanges returns a job's detection ranges sorted ascending.
func (r *JobRepository) GetDetectionRanges(jobID int64) ([]timeline.DetectionRange, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT start_sec, end_sec, confidence FROM detection_ranges
		WHERE job_id = ? ORDER BY start_sec
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection ranges: %w", err)
	}
	defer rows.Close()

	var ranges []timeline.DetectionRange
	for rows.Next() {
		var d timeline.DetectionRange
		if err := rows.Scan(&d.Start, &d.End, &d.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan detection range: %w", err)
		}
		ranges = append(ranges, d)
	}
	return ranges, rows.Err()
}

// GetKeepRanges returns a job's keep ranges sorted ascending.
func (r *JobRepository) GetKeepRanges(jobID int64) ([]timeline.KeepRange, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT start_sec, end_sec FROM keep_ranges
		WHERE job_id = ? ORDER BY start_sec
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keep ranges: %w", err)
	}
	defer rows.Close()

	var ranges []timeline.KeepRange
	for rows.Next() {
		var k timeline.KeepRange
		if err := rows.Scan(&k.Start, &k.End); err != nil {
			return nil, fmt.Errorf("failed to scan keep range: %w", err)
		}
		ranges = append(ranges, k)
	}
	return ranges, rows.Err()
}
