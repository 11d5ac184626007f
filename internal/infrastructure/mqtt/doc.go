// Package mqtt publishes security events to an MQTT broker.
//
// The broker is optional. When enabled, every audit entry is mirrored as a
// small JSON message on <prefix>/audit/<resource_type>/<action> so that an
// external SIEM or alerting service can react to lockouts and failed logins
// without polling the database. The payload carries the same identifiers
// as the audit row and nothing else.
//
// A retained status message on <prefix>/system/status, with a Last Will,
// tells subscribers whether the service is online.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().AuditEvent("User", "LOGIN_LOCKOUT")
//	client.Publish(topic, payload, 1, false)
package mqtt
