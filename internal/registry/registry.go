// Package registry tracks the mutable state of in-flight and paused chunked
// transfers, keyed by (bucket, key).
//
// The registry itself tolerates concurrent create/get/remove across keys; the
// per-entry State serializes mutations from the concurrent part-upload tasks
// of a single transfer under its own mutex.
package registry

import (
	"sort"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// key identifies one transfer.
type key struct {
	bucket string
	object string
}

// State is the mutable record for one chunked transfer. Identity fields are
// immutable once created; the completed-part set and the pause/abort flags
// are guarded by the mutex.
type State struct {
	bucket     string
	object     string
	sourcePath string
	uploadID   string
	totalBytes int64
	partSize   int64
	totalParts int32

	mu        sync.Mutex
	completed map[int32]string // part number -> etag
	cursor    int32            // contiguous completed prefix; a scan hint, not a correctness source
	paused    bool
	aborted   bool
	abortSent bool
}

// NewState creates the record for a fresh or resumed chunked transfer.
func NewState(bucket, object, sourcePath, uploadID string, totalBytes, partSize int64, totalParts int32) *State {
	return &State{
		bucket:     bucket,
		object:     object,
		sourcePath: sourcePath,
		uploadID:   uploadID,
		totalBytes: totalBytes,
		partSize:   partSize,
		totalParts: totalParts,
		completed:  make(map[int32]string),
	}
}

// Bucket returns the destination bucket.
func (s *State) Bucket() string { return s.bucket }

// Key returns the destination object key.
func (s *State) Key() string { return s.object }

// SourcePath returns the local path being uploaded.
func (s *State) SourcePath() string { return s.sourcePath }

// UploadID returns the backend-assigned multipart upload identity.
func (s *State) UploadID() string { return s.uploadID }

// TotalBytes returns the source size.
func (s *State) TotalBytes() int64 { return s.totalBytes }

// PartSize returns the fixed part size the transfer was planned with.
func (s *State) PartSize() int64 { return s.partSize }

// TotalParts returns the planned part count.
func (s *State) TotalParts() int32 { return s.totalParts }

// RecordPart inserts a gateway-acknowledged part into the completed set.
// Inserting the same part number twice keeps a single entry.
func (s *State) RecordPart(number int32, etag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[number] = etag
}

// Seed replaces the completed set with the authoritative part listing from
// the backend. Every locally recorded part was gateway-acknowledged, so the
// backend listing is always a superset of local state.
func (s *State) Seed(parts []transfertypes.CompletedPart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = make(map[int32]string, len(parts))
	for _, p := range parts {
		s.completed[p.Number] = p.ETag
	}
	s.cursor = 0
}

// Missing returns up to limit part numbers not yet in the completed set, in
// ascending order. Selection scans for gaps rather than incrementing a
// cursor: a resumed transfer may hold an arbitrary non-contiguous subset of
// completed parts. The cursor only skips the contiguous completed prefix.
func (s *State) Missing(limit int) []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.cursor < s.totalParts {
		if _, ok := s.completed[s.cursor+1]; !ok {
			break
		}
		s.cursor++
	}

	out := make([]int32, 0, limit)
	for n := s.cursor + 1; n <= s.totalParts && len(out) < limit; n++ {
		if _, ok := s.completed[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// CompletedCount returns the number of distinct completed parts.
func (s *State) CompletedCount() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int32(len(s.completed))
}

// CompletedParts materializes the completed set sorted ascending by part
// number, as required by the finalize call.
func (s *State) CompletedParts() []transfertypes.CompletedPart {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]transfertypes.CompletedPart, 0, len(s.completed))
	for n, etag := range s.completed {
		parts = append(parts, transfertypes.CompletedPart{Number: n, ETag: etag})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Number < parts[j].Number })
	return parts
}

// BytesCompleted returns the total byte length covered by completed parts.
func (s *State) BytesCompleted() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for n := range s.completed {
		length := s.partSize
		if offset := int64(n-1) * s.partSize; offset+length > s.totalBytes {
			length = s.totalBytes - offset
		}
		total += length
	}
	return total
}

// Pause requests a cooperative pause. The transfer loop observes the flag at
// the next batch boundary.
func (s *State) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// ClearPaused resets the pause flag when a transfer resumes.
func (s *State) ClearPaused() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// IsPaused reports whether a pause was requested. Aborted dominates paused.
func (s *State) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused && !s.aborted
}

// MarkAborted requests an abort. Once set the flag is never cleared.
func (s *State) MarkAborted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
}

// IsAborted reports whether an abort was requested.
func (s *State) IsAborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// BeginAbort claims responsibility for issuing the backend abort call.
// Exactly one caller wins; the external Abort entry point and the transfer
// loop may race here.
func (s *State) BeginAbort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abortSent {
		return false
	}
	s.abortSent = true
	return true
}

// RetryAbort releases the abort claim after a failed backend abort call so a
// later attempt can retry it.
func (s *State) RetryAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortSent = false
}

// Snapshot returns a point-in-time view for external persistence.
func (s *State) Snapshot() *transfertypes.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &transfertypes.StateSnapshot{
		UploadID:       s.uploadID,
		Bucket:         s.bucket,
		Key:            s.object,
		SourcePath:     s.sourcePath,
		TotalBytes:     s.totalBytes,
		PartSize:       s.partSize,
		PartsCompleted: int32(len(s.completed)),
		TotalParts:     s.totalParts,
		Paused:         s.paused,
	}
}

// Registry maps (bucket, key) to transfer state for the lifetime of one
// client instance. There is no implicit expiry: entries leave the registry
// only on successful completion or successful abort.
type Registry struct {
	mu     sync.RWMutex
	states map[key]*State
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		states: make(map[key]*State),
	}
}

// Create registers the state for its bucket/key pair. If an entry already
// exists the existing one is returned, keeping a single record per key.
func (r *Registry) Create(st *State) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{bucket: st.bucket, object: st.object}
	if existing, ok := r.states[k]; ok {
		return existing
	}
	r.states[k] = st
	return st
}

// Get returns the registered state for the bucket/key pair, if any.
func (r *Registry) Get(bucket, object string) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.states[key{bucket: bucket, object: object}]
	return st, ok
}

// Remove deletes and returns the registered state for the bucket/key pair.
func (r *Registry) Remove(bucket, object string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{bucket: bucket, object: object}
	st, ok := r.states[k]
	if ok {
		delete(r.states, k)
	}
	return st, ok
}
