package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/autodev/internal/models"
	"github.com/desertthunder/autodev/internal/shared"
)

var _ models.Repository[*models.JobRecord] = (*JobRepository)(nil)

const jobColumns = `id, sequence, remote_id, project_id, status, input_files, created_at, updated_at, deleted_at`

// JobRepository implements models.Repository[*models.JobRecord] for the local job history.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a JobRepository over db, which must already be migrated.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts job with a generated ID and the next sequence number.
func (r *JobRepository) Create(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	inputFiles, err := encodeFiles(job.InputFiles())
	if err != nil {
		return err
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO jobs (id, sequence, remote_id, project_id, status, input_files, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query,
		id,
		sequence,
		job.RemoteID(),
		job.ProjectID(),
		string(job.Status()),
		inputFiles,
		job.CreatedAt(),
		job.UpdatedAt(),
	); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	job.SetID(id)
	job.SetSequence(sequence)
	return nil
}

// Get retrieves a job by local ID, excluding soft-deleted jobs.
func (r *JobRepository) Get(id string) (*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByRemoteID retrieves a job by the backend's job ID.
func (r *JobRepository) GetByRemoteID(remoteID string) (*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE remote_id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, remoteID))
}

// Update persists the job's status and bumps updated_at.
func (r *JobRepository) Update(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(`
		UPDATE jobs
		SET status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(job.Status()), now, job.ID())
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if err := expectRow(result, job.ID()); err != nil {
		return err
	}

	job.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a job by local ID.
func (r *JobRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE jobs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return expectRow(result, id)
}

// List retrieves jobs matching criteria in sequence order.
//
// Supported criteria are "project_id" (string), "status" ([models.JobStatus] or string) and "limit" (int).
func (r *JobRepository) List(criteria map[string]any) ([]*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE deleted_at IS NULL`
	args := []any{}

	if projectID, ok := criteria["project_id"].(string); ok && projectID != "" {
		query += " AND project_id = ?"
		args = append(args, projectID)
	}

	switch status := criteria["status"].(type) {
	case models.JobStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobRecord
	for rows.Next() {
		job, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) scan(row scanner) (*models.JobRecord, error) {
	var (
		id         string
		sequence   int
		remoteID   string
		projectID  string
		status     string
		inputFiles string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &projectID, &status, &inputFiles, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	var files []string
	if err := json.Unmarshal([]byte(inputFiles), &files); err != nil {
		return nil, fmt.Errorf("failed to decode input files for job %s: %w", id, err)
	}

	job := models.NewJobRecord(sequence, remoteID, projectID, files)
	job.SetID(id)
	job.SetStatus(models.JobStatus(status))
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}
	return job, nil
}

func encodeFiles(files []string) (string, error) {
	if files == nil {
		files = []string{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("failed to encode input files: %w", err)
	}
	return string(data), nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return nil
}
