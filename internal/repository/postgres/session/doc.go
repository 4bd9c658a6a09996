// Package session provides the single long-lived database session used by
// the lease store.
//
// Two adapters are available behind the Session interface: one over
// database/sql (lib/pq, accessed through sqlx) pinned to a single
// connection, and one over a native pgx connection. Both keep prepared
// statements by name so callers address them without holding driver handles.
package session
