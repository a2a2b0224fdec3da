package registry

import "time"

// LeaseManager computes lease deadlines and renewals. The clock is injectable
// so expiry behavior can be tested without sleeping.
type LeaseManager struct {
	defaultTTL time.Duration
	now        func() time.Time
}

// NewLeaseManager creates a LeaseManager with the given default TTL.
func NewLeaseManager(defaultTTL time.Duration) *LeaseManager {
	return &LeaseManager{
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// DefaultTTL returns the TTL applied when a registration carries no override.
func (lm *LeaseManager) DefaultTTL() time.Duration {
	return lm.defaultTTL
}

// Touch renews the record's lease: last_renewed_at becomes now and the
// deadline moves to now+ttl. RegisteredAt is set on first touch only and
// preserved across renewals. A non-positive ttl selects the default.
func (lm *LeaseManager) Touch(rec Record, ttl time.Duration) Record {
	if ttl <= 0 {
		ttl = lm.defaultTTL
	}
	now := lm.now()
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = now
	}
	rec.LastRenewedAt = now
	rec.LeaseDeadline = now.Add(ttl)
	return rec
}

// Expired reports whether the record's lease has lapsed.
func (lm *LeaseManager) Expired(rec Record) bool {
	return rec.Expired(lm.now())
}
