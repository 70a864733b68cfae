package models

import (
	"encoding/json"
	"time"
)

// Model defines the base interface for persisted models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Project is a backend project owning generation jobs.
type Project struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	UserID      string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// UploadResult lists the server-side paths of uploaded files, in upload order.
type UploadResult struct {
	Files []string `json:"files"`
}

// Job is the response to job creation.
type Job struct {
	ID string `json:"id"`
}

// JobStatus mirrors the backend job lifecycle.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobSummary is one entry of the job listing.
type JobSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Status    JobStatus `json:"status" yaml:"status"`
	CreatedAt string    `json:"created_at" yaml:"created_at"`
}

// SaveSpecResult echoes a stored specification.
type SaveSpecResult struct {
	Message string          `json:"message"`
	Spec    json.RawMessage `json:"spec"`
}

// SpecPreview summarizes a stored specification.
type SpecPreview struct {
	AppName     string          `json:"appName"`
	Description string          `json:"description"`
	Entities    int             `json:"entities"`
	Endpoints   int             `json:"endpoints"`
	Pages       int             `json:"pages"`
	FullSpec    json.RawMessage `json:"fullSpec"`
}

// JobFiles maps project-relative paths to file contents.
type JobFiles struct {
	Files map[string]string `json:"files"`
}

// JobFile is a single generated file.
type JobFile struct {
	Content string `json:"content"`
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is a registered account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Template is a starter application offered by /advanced/templates.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Features    []string `json:"features"`
	Tech        []string `json:"tech"`
}
