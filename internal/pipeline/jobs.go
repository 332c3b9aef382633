package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/dchest/siphash"
	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/google/uuid"
)

// JobStatus represents the state of a decode job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusDecoding   JobStatus = "decoding"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks the state of a single document decode.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Cached   bool      `json:"cached"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	tree     *doctree.DocTree
	errors   []string
}

// Progress summarizes a decode result.
type Progress struct {
	Chunks         int      `json:"chunks"`
	Pages          int      `json:"pages"`
	Shapes         int      `json:"shapes"`
	Stencils       int      `json:"stencils"`
	DecodeMs       int64    `json:"decode_ms"`
	NodesPublished int      `json:"nodes_published"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded file. The document ID is the
// content fingerprint, so identical uploads share it.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		DocID:     Fingerprint(data),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len is the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult stores the decoded tree and releases the upload.
func (j *Job) SetResult(tree *doctree.DocTree, cached bool, decodeMs int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tree = tree
	j.fileData = nil
	j.Cached = cached
	j.Progress.Chunks = tree.Stats.Chunks
	j.Progress.Pages = len(tree.Pages)
	j.Progress.Shapes = tree.Shapes()
	j.Progress.Stencils = len(tree.Stencils)
	j.Progress.DecodeMs = decodeMs
	j.UpdatedAt = time.Now()
}

// Result returns the decoded tree, or nil before decoding finishes.
func (j *Job) Result() *doctree.DocTree {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tree
}

// AddPublished records nodes written to pathstore.
func (j *Job) AddPublished(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.NodesPublished += n
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	DocID     string    `json:"doc_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Cached    bool      `json:"cached"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Cached:    j.Cached,
		Progress:  p,
		CreatedAt: j.CreatedAt,
	}
}

// Fixed SipHash key. Fingerprints identify content, they do not
// authenticate it.
const (
	fingerprintK0 = 0x7673646765737430
	fingerprintK1 = 0x646f632d69647331
)

// Fingerprint returns a 64-bit SipHash of data as 16 hex digits.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", siphash.Hash(fingerprintK0, fingerprintK1, data))
}
