// File: coordinator/config.go
package coordinator

import (
	"time"

	"github.com/hioload-ai/coderuntime/lsp"
)

// Config sizes the coordinator's background schedulers and locates
// its persisted state (spec.md §6.3, §4.11).
type Config struct {
	WorkspaceDir  string // root of snapshots/, index/, cache/, recovery/ (spec.md §6.3)
	ControlRing   string // control ring name; <prefix>_control (spec.md §6.2)
	EmbeddingDim  int

	HealthCheckInterval    time.Duration
	TierMigrationInterval  time.Duration
	IndexPersistInterval   time.Duration
	ShutdownDrainTimeout   time.Duration

	// DispatchWorkers sizes the frame-dispatch worker pool (C11) that
	// runs Router.Dispatch off each connection's read-loop goroutine.
	DispatchWorkers int
	// DispatchNUMANode pins dispatch workers to this NUMA node via
	// internal/concurrency.PinCurrentThread; -1 disables pinning.
	DispatchNUMANode int

	Admission lsp.AdmissionConfig
}

// DefaultConfig returns the spec's suggested defaults for a workspace
// rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		WorkspaceDir:          dir,
		ControlRing:           "coderuntime_control",
		HealthCheckInterval:   5 * time.Second,
		TierMigrationInterval: 30 * time.Second,
		IndexPersistInterval:  60 * time.Second,
		ShutdownDrainTimeout:  10 * time.Second,
		DispatchWorkers:       4,
		DispatchNUMANode:      -1,
		Admission:             lsp.DefaultAdmissionConfig(),
	}
}
