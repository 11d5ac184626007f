package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHTTPRequests = "http_requests"
)

// WritePoint writes a custom point with full control over tags and fields.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Tags must stay low cardinality: never user ids, patient ids or tokens.
//
// Example:
//
//	client.WritePoint("security_events",
//	    map[string]string{"action": "LOGIN_LOCKOUT"},
//	    map[string]any{"count": 1})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WriteRequestMetric records one served HTTP request.
//
// route is the matched chi pattern (e.g. /api/v1/patient/{id}), never the
// raw path, so ids do not leak into tag values.
func (c *Client) WriteRequestMetric(method, route string, status int, duration time.Duration) {
	c.WritePoint(MeasurementHTTPRequests,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]any{
			"count":       1,
			"duration_ms": float64(duration.Microseconds()) / 1000, //nolint:mnd // µs to ms
		},
	)
}
