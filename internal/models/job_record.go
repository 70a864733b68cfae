package models

import (
	"fmt"
	"time"
)

var _ Model = (*JobRecord)(nil)

// JobRecord is the local history entry for a generation job created through this client.
type JobRecord struct {
	id         string
	sequence   int
	remoteID   string
	projectID  string
	status     JobStatus
	inputFiles []string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewJobRecord creates a pending record for the backend job remoteID.
func NewJobRecord(sequence int, remoteID, projectID string, inputFiles []string) *JobRecord {
	now := time.Now().UTC()
	return &JobRecord{
		sequence:   sequence,
		remoteID:   remoteID,
		projectID:  projectID,
		status:     JobPending,
		inputFiles: inputFiles,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (j *JobRecord) ID() string                { return j.id }
func (j *JobRecord) Sequence() int             { return j.sequence }
func (j *JobRecord) RemoteID() string          { return j.remoteID }
func (j *JobRecord) ProjectID() string         { return j.projectID }
func (j *JobRecord) Status() JobStatus         { return j.status }
func (j *JobRecord) InputFiles() []string      { return j.inputFiles }
func (j *JobRecord) CreatedAt() time.Time      { return j.createdAt }
func (j *JobRecord) UpdatedAt() time.Time      { return j.updatedAt }
func (j *JobRecord) DeletedAt() *time.Time     { return j.deletedAt }
func (j *JobRecord) SetID(id string)           { j.id = id }
func (j *JobRecord) SetSequence(seq int)       { j.sequence = seq }
func (j *JobRecord) SetStatus(s JobStatus)     { j.status = s }
func (j *JobRecord) SetCreatedAt(t time.Time)  { j.createdAt = t }
func (j *JobRecord) SetUpdatedAt(t time.Time)  { j.updatedAt = t }
func (j *JobRecord) SetDeletedAt(t *time.Time) { j.deletedAt = t }

// Validate checks required fields and the status value.
func (j *JobRecord) Validate() error {
	if j.remoteID == "" {
		return fmt.Errorf("remote job id is required")
	}
	switch j.status {
	case JobPending, JobProcessing, JobCompleted, JobFailed:
	default:
		return fmt.Errorf("unknown job status %q", j.status)
	}
	return nil
}
