// The progress registry is the single piece of shared mutable state in
// the download pipeline: a lock-guarded map of job ID to progress
// snapshot, written by the orchestrator's progress callback and read by
// polling callers and the websocket broadcaster.
package progress

import (
	"sync"
	"time"
)

type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateDownloading
	StateProcessing
	StateConverting
)

func (s State) String() string {
	return []string{
		"Not started",
		"Starting...",
		"Downloading...",
		"Processing...",
		"Converting to MP3...",
	}[s]
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

type (
	// Snapshot is a point-in-time view of one job's progress. Values are
	// copied out of the registry, so a caller can never observe a
	// half-applied update.
	Snapshot struct {
		JobID      string    `json:"job_id"`
		Percent    float64   `json:"percent"`
		State      State     `json:"status"`
		Speed      string    `json:"speed"`
		SizeInfo   string    `json:"size"`
		Downloaded int64     `json:"downloaded_bytes"`
		Total      int64     `json:"total_bytes,omitempty"`
		CreatedAt  time.Time `json:"-"`
	}

	// Fields is a partial snapshot for merge-updates; nil members leave
	// the existing value untouched.
	Fields struct {
		Percent    *float64
		State      *State
		Speed      *string
		SizeInfo   *string
		Downloaded *int64
		Total      *int64
	}

	// Registry owns the progress snapshots for all in-flight jobs. All
	// access goes through the whole-map mutex; snapshots returned from
	// Get are copies.
	Registry struct {
		mu   sync.Mutex
		jobs map[string]Snapshot
	}
)

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Snapshot)}
}

// Create initialises the entry for the given job ID to a fresh Starting
// snapshot, overwriting any prior entry for that ID.
func (registry *Registry) Create(jobID string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.jobs[jobID] = Snapshot{
		JobID:     jobID,
		Percent:   0,
		State:     StateStarting,
		Speed:     "0 B/s",
		CreatedAt: time.Now(),
	}
}

// Update merges the non-nil fields into the job's entry. A missing
// entry is created defensively so a late progress event can never be
// lost to a race with Create.
func (registry *Registry) Update(jobID string, fields Fields) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	snapshot, ok := registry.jobs[jobID]
	if !ok {
		snapshot = Snapshot{JobID: jobID, State: StateStarting, Speed: "0 B/s", CreatedAt: time.Now()}
	}

	if fields.Percent != nil {
		snapshot.Percent = *fields.Percent
	}
	if fields.State != nil {
		snapshot.State = *fields.State
	}
	if fields.Speed != nil {
		snapshot.Speed = *fields.Speed
	}
	if fields.SizeInfo != nil {
		snapshot.SizeInfo = *fields.SizeInfo
	}
	if fields.Downloaded != nil {
		snapshot.Downloaded = *fields.Downloaded
	}
	if fields.Total != nil {
		snapshot.Total = *fields.Total
	}

	registry.jobs[jobID] = snapshot
}

// Get returns a copy of the job's snapshot. Unknown job IDs yield the
// default "not started" snapshot rather than an error - callers may
// legitimately poll before the job has been registered.
func (registry *Registry) Get(jobID string) Snapshot {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if snapshot, ok := registry.jobs[jobID]; ok {
		return snapshot
	}

	return Snapshot{JobID: jobID, Percent: 0, State: StateNotStarted, Speed: "0 B/s"}
}

// Remove deletes the job's entry. Removing an absent entry is a no-op.
func (registry *Registry) Remove(jobID string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	delete(registry.jobs, jobID)
}
