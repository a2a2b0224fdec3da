package api

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/relatorlabs/beacon/errors"
	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/registry"
	"github.com/relatorlabs/beacon/server"
)

// Handlers exposes the registry operations as Gin handlers.
type Handlers struct {
	svc *registry.Service
	log *logger.Logger
}

// NewHandlers creates the API handler set over a registry service.
func NewHandlers(svc *registry.Service, log *logger.Logger) *Handlers {
	return &Handlers{
		svc: svc,
		log: log.WithComponent("api"),
	}
}

// Health reports liveness and the number of live registrations.
// It is intentionally unauthenticated so external probes can reach it.
func (h *Handlers) Health(c *gin.Context) {
	server.RespondOK(c, HealthResponse{
		Status:     "ok",
		Registered: h.svc.LiveCount(),
	})
}

// Register creates or renews a registration. It always succeeds for a valid
// payload; a prior record under the same name is overwritten so a restarted
// collaborator can reclaim its name without operator intervention.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, bindingError(err))
		return
	}

	rec, err := h.svc.Register(c.Request.Context(), registry.RegisterInput{
		Name:     req.Name,
		Host:     req.Host,
		Port:     req.Port,
		Metadata: req.Metadata,
		TTL:      time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	server.RespondOK(c, RegisterResponse{
		Name:      rec.Name,
		Host:      rec.Host,
		Port:      rec.Port,
		Endpoint:  rec.Endpoint(),
		ExpiresAt: rec.LeaseDeadline,
	})
}

// Discover returns the live record for a name, or 404 when no live record
// exists. An expired record counts as absent whether or not the sweeper has
// physically removed it.
func (h *Handlers) Discover(c *gin.Context) {
	name := c.Param("name")

	rec, err := h.svc.Discover(c.Request.Context(), name)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	server.RespondOK(c, toServiceResponse(rec))
}

// List returns all live registrations.
func (h *Handlers) List(c *gin.Context) {
	records := h.svc.List(c.Request.Context())

	services := make([]ServiceResponse, 0, len(records))
	for _, rec := range records {
		services = append(services, toServiceResponse(rec))
	}

	server.RespondOK(c, ListResponse{Services: services, Count: len(services)})
}

// Unregister removes a registration. Removing an absent name is not an
// error; the response reports removed=false.
func (h *Handlers) Unregister(c *gin.Context) {
	name := c.Param("name")
	removed := h.svc.Unregister(c.Request.Context(), name)
	server.RespondOK(c, UnregisterResponse{Name: name, Removed: removed})
}

// bindingError translates gin/validator binding failures into the API error
// taxonomy: missing required fields and malformed values are both 400s, but
// with distinct codes.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if ok := stderrors.As(err, &verrs); ok && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return errors.MissingField(field)
		}
		return errors.InvalidInput(field, "failed validation rule "+fe.Tag())
	}
	return errors.Validation("malformed request body").WithCause(err)
}
