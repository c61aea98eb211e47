// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// High-performance concurrency primitives with cross-platform CPU/NUMA
// thread pinning, a mutex-guarded task executor, and a min-heap timer
// scheduler. PinCurrentThread backs the outbound dialer's optional
// pinning (transport/tcp) and the coordinator's dispatch-pool workers;
// Executor backs that same dispatch pool; Scheduler backs the LSP
// gateway's per-request timeout.
//
// Pinning is cross-platform (Linux/Windows); unsupported platforms get
// a no-op.
package concurrency
