package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "medrecord"

// Topics builds topic names under a fixed prefix.
//
//	topics := mqtt.NewTopics("medrecord")
//	topics.AuditEvent("User", "LOGIN_LOCKOUT")
//	// Returns: "medrecord/audit/user/login_lockout"
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder for prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: medrecord/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}

// AuditEvent returns the topic for one audit entry. Both segments are
// lower-cased so subscribers can filter by resource type.
//
// Example: medrecord/audit/patient/read_patient_success
func (t Topics) AuditEvent(resourceType, action string) string {
	return fmt.Sprintf("%s/audit/%s/%s", t.prefix, strings.ToLower(resourceType), strings.ToLower(action))
}

// AllAuditEvents returns a pattern matching every audit event.
//
// Pattern: medrecord/audit/#
func (t Topics) AllAuditEvents() string {
	return fmt.Sprintf("%s/audit/#", t.prefix)
}
