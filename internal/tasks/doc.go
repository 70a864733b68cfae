// Package tasks orchestrates the end-to-end generation flow against the backend with real-time progress reporting.
//
// # Pipeline
//
// [Pipeline.Run] drives one job from documents to generated code:
//
//  1. Create the project, or reuse [RunOpts.ProjectID]
//  2. Upload documents in batches of [RunOpts.BatchSize], throttled to [RunOpts.RateLimit] batches per second
//  3. Create a generation job over the uploaded paths
//  4. Subscribe to the job's analysis stream and concatenate the streamed chunks
//  5. Extract the JSON specification from the analysis ([ExtractSpec]) and save it on the job
//  6. Trigger code generation unless [RunOpts.SkipGenerate] is set
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block:
// when the channel is full the update is dropped.
//
// # Job History
//
// The optional [JobHistory] records the job locally (repositories.JobRepository) and tracks its status.
// History failures are logged and never abort the run.
package tasks
