// Package influxdb provides optional InfluxDB connectivity for security and
// request metrics.
//
// It wraps the official influxdb-client-go v2 library. Writes are batched
// and non-blocking; asynchronous write failures are delivered to the
// callback registered with SetOnError.
//
// Two measurements are written:
//
//   - security_events: one point per audit entry, tagged by action,
//     resource_type and success
//   - http_requests: one point per served request, tagged by method,
//     matched route and status, with a duration_ms field
//
// No identifiers of users or patients are written as tags or fields.
package influxdb
