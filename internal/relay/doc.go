// Package relay turns a user query into a single upstream inference call and
// normalizes the outcome. It is structured into small files by concern:
//
//   - relay.go: Relay type, New/NewWithConfig, Search entry point.
//   - config.go: Config and package defaults.
//   - errors.go: error taxonomy (Kind, Error) and IsX helpers.
//   - prompt.go: query classification, templates and generation profiles.
//   - retry.go: RetryPolicy (attempts, backoff, Retry-After handling).
//   - upstream_iface.go: Upstream interface and the wire-neutral request.
//   - upstream_together.go: HTTP adapter for the Together inference API.
//   - upstream_gemini.go: adapter for Google Gemini via the genai SDK.
//   - metrics.go: Prometheus collectors for upstream calls.
//
// The HTTP layer maps errors returned by Search to status codes through
// (*Error).StatusCode and never exposes Err or the credential.
package relay
