// Package http provides HTTP handlers and middleware for the interview
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /schedules: runs the scheduling pipeline for a candidate and stage,
//     returning the created schedule, its proposed options, and the
//     candidate-facing proposal message.
//   - GET /schedules/{id}: fetches a schedule together with its options.
//   - POST /schedules/{id}/confirm: records the candidate's chosen option.
//     Body: {"option_id","beverage_preference"?}. Exactly one confirmation can
//     succeed; later attempts receive 409 with error code CONFLICT.
//   - PATCH /schedules/{id}: administrator-only manual override of schedule
//     status, scheduled time, and candidate response. It never touches options.
//
// Authentication is handled upstream; the gateway forwards the caller's
// identity in the X-User-Id and X-User-Role headers, which RequirePrincipal
// converts into an application.Principal.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
