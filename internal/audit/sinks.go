package audit

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is the subset of the MQTT client used by MQTTSink.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// TopicBuilder names the topic for an entry.
type TopicBuilder interface {
	AuditEvent(resourceType, action string) string
}

// MQTTSink publishes entries as JSON, one non-retained message per entry.
type MQTTSink struct {
	pub    Publisher
	topics TopicBuilder
	qos    byte
}

// NewMQTTSink creates a sink publishing on the topics from topics.
func NewMQTTSink(pub Publisher, topics TopicBuilder, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, topics: topics, qos: qos}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Emit implements Sink.
func (s *MQTTSink) Emit(_ context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling audit event: %w", err)
	}
	return s.pub.Publish(s.topics.AuditEvent(entry.ResourceType, entry.Action), payload, s.qos, false)
}

// PointWriter is the subset of the InfluxDB client used by MetricsSink.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any)
}

// MeasurementSecurityEvents is the InfluxDB measurement for audit counters.
const MeasurementSecurityEvents = "security_events"

// MetricsSink counts entries in InfluxDB, tagged by action, resource type
// and outcome. User and resource ids are not written.
type MetricsSink struct {
	w PointWriter
}

// NewMetricsSink creates a sink writing through w.
func NewMetricsSink(w PointWriter) *MetricsSink {
	return &MetricsSink{w: w}
}

// Name implements Sink.
func (s *MetricsSink) Name() string { return "influxdb" }

// Emit implements Sink. Writes are batched by the client and never fail here.
func (s *MetricsSink) Emit(_ context.Context, entry Entry) error {
	success := "false"
	if entry.Success {
		success = "true"
	}
	s.w.WritePoint(MeasurementSecurityEvents,
		map[string]string{
			"action":        entry.Action,
			"resource_type": entry.ResourceType,
			"success":       success,
		},
		map[string]any{"count": 1},
	)
	return nil
}
