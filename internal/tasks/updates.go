package tasks

import (
	"fmt"

	"github.com/desertthunder/autodev/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	CreateProject Phase = iota
	UploadFiles
	CreateJob
	Analyze
	SaveSpec
	Generate
	Done
)

func (p Phase) String() string {
	switch p {
	case CreateProject:
		return "create_project"
	case UploadFiles:
		return "upload_files"
	case CreateJob:
		return "create_job"
	case Analyze:
		return "analyze"
	case SaveSpec:
		return "save_spec"
	case Generate:
		return "generate"
	case Done:
		return "done"
	default:
		return ""
	}
}

func creatingProjectUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateProject,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating project %q...", name),
	}
}

func projectReadyUpdate(p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateProject,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Project ready: %s (ID: %s)", p.Name, p.ID),
		Data:    p,
	}
}

func uploadBatchUpdate(step, total, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %d file(s)...", step, total, files),
	}
}

func uploadedUpdate(total int, paths []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Uploaded %d file(s)", len(paths)),
		Data:    paths,
	}
}

func jobCreatedUpdate(job *models.Job) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateJob,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Job created: %s", job.ID),
		Data:    job,
	}
}

func analyzingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Message: "Analyzing documents...",
	}
}

// analysisChunkUpdate carries one streamed chunk; Step counts chunks received so far.
func analysisChunkUpdate(step int, chunk string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    step,
		Message: chunk,
		Data:    chunk,
	}
}

func analysisDoneUpdate(chunks, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    chunks,
		Total:   chunks,
		Message: fmt.Sprintf("Analysis complete (%d chunks, %d bytes)", chunks, size),
	}
}

func specSavedUpdate(result *models.SaveSpecResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveSpec,
		Step:    1,
		Total:   1,
		Message: result.Message,
		Data:    result,
	}
}

func generatingUpdate(jobID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generate,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Generating code for job %s...", jobID),
	}
}

func generatedUpdate(result any) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generate,
		Step:    1,
		Total:   1,
		Message: "Code generation finished",
		Data:    result,
	}
}

func doneUpdate(res *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ Job %s finished", res.Job.ID),
		Data:    res,
	}
}
