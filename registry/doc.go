// Package registry implements the beacon service registry core: an
// in-memory entry store keyed by service name, lease management with
// TTL-based expiry, the register/discover/list/unregister operations, and a
// background sweeper that evicts records whose lease has lapsed.
//
// A registration is a lease, not a permanent fact. Collaborators renew by
// re-registering (or heartbeating) before the lease deadline; a collaborator
// that crashes simply stops renewing and its record ages out. Discover and
// List never return an expired record even if the sweeper has not removed it
// yet, so read-side correctness does not depend on sweep timing.
package registry
