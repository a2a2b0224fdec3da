package registry

import (
	"fmt"
	"time"
)

// Record is one collaborator's current registration.
type Record struct {
	Name          string         `json:"name"`
	Host          string         `json:"host"`
	Port          int            `json:"port"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	RegisteredAt  time.Time      `json:"registered_at"`
	LastRenewedAt time.Time      `json:"last_renewed_at"`
	LeaseDeadline time.Time      `json:"lease_deadline"`
}

// Endpoint returns the record's network location as "host:port".
func (r Record) Endpoint() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Expired reports whether the record's lease has lapsed at the given instant.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.LeaseDeadline)
}

// clone returns a deep copy so callers never share metadata maps with the store.
func (r Record) clone() Record {
	if r.Metadata != nil {
		md := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		r.Metadata = md
	}
	return r
}
