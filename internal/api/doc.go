// Package api implements the HTTP JSON API for medrecord-core.
//
// This package provides:
//   - Login, logout, change-password and identity endpoints
//   - Patient read and diagnosis update, appointment booking, name search
//   - Aggregate statistics, FHIR Patient export and the audit listing
//   - Middleware stack (request ID, security headers, logging, recovery,
//     body limit, session authentication, role gate, login rate limit)
//
// # Request Flow
//
// Every handler follows the same shape: role check (middleware), typed
// decode and validation, a single repository call, one audit entry, JSON
// response. Handlers never build SQL and never echo store errors.
//
// # Security
//
// Sessions are opaque bearer tokens issued by auth.Service and accepted
// from the Authorization header or the session cookie. The authenticated
// caller travels as an auth.Identity in the request context
// (IdentityFromContext). Doctors and nurses may only open records of
// patients on their care team; other records answer 404 exactly like a
// missing record.
//
// # Graceful Degradation
//
// MQTT and InfluxDB are optional. Without them the audit trail is still
// written to SQLite and request metrics are simply not exported.
package api
