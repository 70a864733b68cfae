// Package models defines the wire types exchanged with the generation backend and the locally persisted job record.
//
// API types mirror the backend's JSON responses:
//   - [Project] : POST/GET /projects
//   - [UploadResult] : POST /upload
//   - [Job], [JobSummary] : /generation/job, /generation/jobs
//   - [SpecPreview], [SaveSpecResult] : spec preview and save
//   - [JobFiles], [JobFile] : generated project contents
//   - [Token], [User] : /auth
//   - [Template] : /advanced/templates
//
// [JobRecord] is the client-side history entry stored by the repositories package.
package models
