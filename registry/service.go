package registry

import (
	"context"
	"time"

	"github.com/relatorlabs/beacon/errors"
	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/metrics"
)

// RegisterInput carries one registration request.
type RegisterInput struct {
	Name     string
	Host     string
	Port     int
	Metadata map[string]any
	// TTL overrides the default lease duration when positive.
	TTL time.Duration
}

// Service implements the registry operations over a Store and LeaseManager.
type Service struct {
	store  *Store
	leases *LeaseManager
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates a registry Service.
func NewService(store *Store, leases *LeaseManager, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		leases: leases,
		log:    log.WithComponent("registry"),
		now:    time.Now,
	}
}

// Store exposes the underlying store for the sweeper and health reporting.
func (s *Service) Store() *Store {
	return s.store
}

// Register creates or renews the registration for in.Name, replacing any
// prior record. Re-registration is a renewal: registered_at survives, the
// lease deadline moves forward. Last writer wins on concurrent registrations
// for the same name.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Record, error) {
	if err := validateInput(in); err != nil {
		metrics.Operations.WithLabelValues("register", metrics.StatusError).Inc()
		return Record{}, err
	}

	rec := Record{
		Name:     in.Name,
		Host:     in.Host,
		Port:     in.Port,
		Metadata: in.Metadata,
	}

	// Preserve the original registration time across renewals, but only if
	// the prior lease is still live; a lapsed record is a fresh registration.
	if prev, ok := s.store.Get(in.Name); ok && !prev.Expired(s.now()) {
		rec.RegisteredAt = prev.RegisteredAt
	}

	rec = s.leases.Touch(rec, in.TTL)
	s.store.Put(rec)

	metrics.Operations.WithLabelValues("register", metrics.StatusOK).Inc()
	metrics.RegistrySize.Set(float64(s.liveCount()))

	s.log.Info("Service registered", map[string]interface{}{
		logger.FieldName:     rec.Name,
		logger.FieldEndpoint: rec.Endpoint(),
		"expires_at":         rec.LeaseDeadline.UTC().Format(time.RFC3339),
	})
	return rec, nil
}

// Discover returns the live record for name. A record whose lease has lapsed
// is treated as absent even if the sweeper has not removed it yet.
func (s *Service) Discover(ctx context.Context, name string) (Record, error) {
	rec, ok := s.store.Get(name)
	if !ok || rec.Expired(s.now()) {
		metrics.Operations.WithLabelValues("discover", metrics.StatusNotFound).Inc()
		s.log.Debug("Service not found", map[string]interface{}{logger.FieldName: name})
		return Record{}, errors.NotFound("service", name)
	}

	metrics.Operations.WithLabelValues("discover", metrics.StatusOK).Inc()
	return rec, nil
}

// List returns all live records. Expired-but-unswept records are filtered
// out here as a second safety net independent of the sweeper.
func (s *Service) List(ctx context.Context) []Record {
	now := s.now()
	all := s.store.List()
	live := make([]Record, 0, len(all))
	for _, rec := range all {
		if !rec.Expired(now) {
			live = append(live, rec)
		}
	}
	metrics.Operations.WithLabelValues("list", metrics.StatusOK).Inc()
	return live
}

// Unregister removes the record for name. Removing an absent name is not an
// error; it reports removed=false so client-side retries stay idempotent.
func (s *Service) Unregister(ctx context.Context, name string) bool {
	removed := s.store.Delete(name)

	metrics.Operations.WithLabelValues("unregister", metrics.StatusOK).Inc()
	metrics.RegistrySize.Set(float64(s.liveCount()))

	if removed {
		s.log.Info("Service unregistered", map[string]interface{}{logger.FieldName: name})
	}
	return removed
}

// LiveCount returns the number of records whose lease is still live.
func (s *Service) LiveCount() int {
	return s.liveCount()
}

func (s *Service) liveCount() int {
	now := s.now()
	count := 0
	for _, rec := range s.store.List() {
		if !rec.Expired(now) {
			count++
		}
	}
	return count
}

func validateInput(in RegisterInput) error {
	if in.Name == "" {
		return errors.MissingField("name")
	}
	if in.Host == "" {
		return errors.MissingField("host")
	}
	if in.Port <= 0 || in.Port > 65535 {
		return errors.InvalidInput("port", "must be between 1 and 65535")
	}
	return nil
}
