/*
Package randx provides generators for unique identifiers used by the realtime layer.
*/
package randx

import "github.com/google/uuid"

// ConnectionID generates an opaque identifier for a transport connection.
func ConnectionID() string {
	return uuid.New().String()
}

// EventID generates a unique identifier stamped onto outbound event envelopes.
func EventID() string {
	return uuid.New().String()
}
