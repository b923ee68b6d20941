// Package session implements the fragment session store. Audio arrives from
// devices as out-of-order indexed fragments under a caller-supplied session
// id; the store accumulates them, detects duplicates and conflicts by content
// digest, and on finalize reassembles the recording in index order into the
// blob store. Fragment submissions for one session are serialized by a
// per-session lock; different sessions proceed fully in parallel.
package session

import (
	"sync"
	"time"

	"lukechampine.com/blake3"
)

// State is the lifecycle state of a session.
type State string

const (
	// StateOpen accepts fragments.
	StateOpen State = "open"
	// StateFinalizing rejects fragments while a finalize is in progress.
	StateFinalizing State = "finalizing"
	// StateComplete is terminal; the assembled recording is available.
	StateComplete State = "complete"
	// stateExpired marks a session the janitor evicted while a caller still
	// held a reference to it.
	stateExpired State = "expired"
)

// fragment is one received chunk. The digest makes duplicate detection cheap
// and keeps conflicting re-uploads from mutating stored data.
type fragment struct {
	data       []byte
	sum        [32]byte
	receivedAt time.Time
}

// Session tracks one in-progress fragment upload.
type Session struct {
	mu sync.Mutex

	id            string
	deviceID      string
	state         State
	fragments     map[uint32]fragment
	createdAt     time.Time
	lastActivity  time.Time
	completedAt   time.Time
	recordingPath string
	fragmentCount int
	recordingSize int64
}

func newSession(id, deviceID string, now time.Time) *Session {
	return &Session{
		id:           id,
		deviceID:     deviceID,
		state:        StateOpen,
		fragments:    make(map[uint32]fragment),
		createdAt:    now,
		lastActivity: now,
	}
}

// digest computes the content digest used for idempotency checks.
func digest(payload []byte) [32]byte {
	return blake3.Sum256(payload)
}

// missingIndices returns the fragment indices absent from [0, expected).
// Callers hold s.mu.
func (s *Session) missingIndices(expected uint32) []uint32 {
	var missing []uint32
	for i := uint32(0); i < expected; i++ {
		if _, ok := s.fragments[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// highestIndex returns the largest received fragment index. Callers hold s.mu
// and guarantee at least one fragment.
func (s *Session) highestIndex() uint32 {
	var max uint32
	for i := range s.fragments {
		if i > max {
			max = i
		}
	}
	return max
}
