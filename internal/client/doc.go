// Package client implements the HTTP client for the AutoDev generation backend.
//
// # Requests
//
// [Client.Request] and [Client.Do] send a [Request] relative to the configured base URL
// (default http://localhost:8000/api/v1) and return the decoded JSON body.
// Requests default to "Content-Type: application/json"; per-request headers override the defaults.
// A [Form] body is sent as multipart/form-data with its boundary-bearing content type instead.
//
// # Retry
//
// Every failure is retried up to [RetryPolicy.MaxAttempts] attempts in total:
//   - 503 Service Unavailable waits [RetryPolicy.UnavailableDelay]
//   - transport errors, other non-2xx statuses and undecodable bodies wait [RetryPolicy.FailureDelay]
//
// The last failure is returned as a [*RequestError] whose message is taken from the body's
// "error" or "detail" field. Canceling the context stops retrying immediately.
//
// # Transport
//
// The transport is injected as a [Doer]; [*http.Client] satisfies it. A bearer token is attached by
// wrapping the transport in an [oauth2.Transport] (see [WithToken]).
//
// # Operations
//
// Thin bindings over the generic request: [Client.CreateProject], [Client.UploadFiles], [Client.CreateJob],
// [Client.SaveSpec], [Client.Generate], plus listing, preview, download and auth helpers.
// [Client.AnalyzeStream] returns a [stream.Subscriber] for a job's analysis events.
package client
