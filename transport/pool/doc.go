// Package pool implements the outbound HTTPS connection pool used by
// provider dispatch (spec.md §4.4): a per-host pool of
// *http.Client-backed connections with adaptive scale-up/down of the
// idle-connection cap, periodic health checks, and a per-host TLS
// failure count reported through Stats. Connections are dialed on
// demand; none are opened in advance.
package pool
