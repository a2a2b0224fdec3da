// Package api implements the beacon registry's HTTP control surface:
// register, discover, list, unregister, and health.
package api

import (
	"time"

	"github.com/relatorlabs/beacon/registry"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string         `json:"name" binding:"required,servicename"`
	Host     string         `json:"host" binding:"required"`
	Port     int            `json:"port" binding:"required,min=1,max=65535"`
	Metadata map[string]any `json:"metadata"`
	// TTLSeconds optionally overrides the registry's default lease TTL.
	TTLSeconds int `json:"ttl_seconds" binding:"omitempty,min=1"`
}

// RegisterResponse confirms a registration and its lease deadline.
type RegisterResponse struct {
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Endpoint  string    `json:"endpoint"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServiceResponse describes one live registration.
type ServiceResponse struct {
	Name      string         `json:"name"`
	Host      string         `json:"host"`
	Port      int            `json:"port"`
	Endpoint  string         `json:"endpoint"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ListResponse carries all live registrations.
type ListResponse struct {
	Services []ServiceResponse `json:"services"`
	Count    int               `json:"count"`
}

// UnregisterResponse reports whether a record was removed.
type UnregisterResponse struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
}

// HealthResponse is the public liveness payload.
type HealthResponse struct {
	Status     string `json:"status"`
	Registered int    `json:"registered"`
}

func toServiceResponse(rec registry.Record) ServiceResponse {
	return ServiceResponse{
		Name:      rec.Name,
		Host:      rec.Host,
		Port:      rec.Port,
		Endpoint:  rec.Endpoint(),
		Metadata:  rec.Metadata,
		ExpiresAt: rec.LeaseDeadline,
	}
}
