package session

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/crosscribe/errors"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/storage"
)

// FinalizeResult describes a successfully assembled recording.
type FinalizeResult struct {
	// RecordingPath is the blob store path of the assembled recording.
	RecordingPath string `json:"recording_path"`
	// FragmentCount is how many fragments were concatenated.
	FragmentCount int `json:"fragment_count"`
	// SizeBytes is the assembled recording size.
	SizeBytes int64 `json:"size_bytes"`
	// DeclaredDurationSec echoes the client-declared duration, if any.
	DeclaredDurationSec float64 `json:"declared_duration_sec,omitempty"`
}

// Store is the keyed fragment session store. The top-level map is guarded by
// a read-write mutex held only for lookups; all fragment work happens under
// the individual session lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	evicted  map[string]time.Time

	cfg   Config
	blobs storage.Storage
	log   *logger.Logger

	// now is swappable for TTL tests.
	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStore creates a fragment session store backed by the given blob store.
func NewStore(cfg Config, blobs storage.Storage, log *logger.Logger) *Store {
	cfg.ApplyDefaults()
	return &Store{
		sessions: make(map[string]*Session),
		evicted:  make(map[string]time.Time),
		cfg:      cfg,
		blobs:    blobs,
		log:      log.WithComponent("session-store"),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the eviction janitor. Stop must be called on shutdown.
func (s *Store) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the janitor and waits for it to exit.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Submit records one fragment. Re-submitting an index with identical bytes is
// an idempotent no-op; different bytes at an occupied index is a conflict and
// leaves the stored fragment untouched.
func (s *Store) Submit(_ context.Context, sessionID string, index uint32, payload []byte, deviceID string) error {
	if sessionID == "" {
		return errors.MissingField("session_id")
	}
	if len(payload) == 0 {
		return errors.InvalidInput("payload", "fragment payload is empty")
	}
	if int64(len(payload)) > s.cfg.MaxFragmentBytes {
		return errors.InvalidInput("payload", fmt.Sprintf("fragment exceeds the %d byte cap", s.cfg.MaxFragmentBytes)).
			WithDetail("size", len(payload))
	}

	sess, err := s.getOrCreate(sessionID, deviceID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state {
	case stateExpired:
		return errors.SessionExpired(sessionID)
	case StateFinalizing:
		return errors.SessionFinalizing(sessionID)
	case StateComplete:
		return errors.SessionComplete(sessionID)
	}

	now := s.now()
	sum := digest(payload)

	if existing, ok := sess.fragments[index]; ok {
		if existing.sum == sum {
			// Client retry after a lost response; nothing to do.
			sess.lastActivity = now
			return nil
		}
		return errors.ConflictingFragment(sessionID, index)
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	sess.fragments[index] = fragment{data: data, sum: sum, receivedAt: now}
	sess.lastActivity = now

	s.log.Debug("fragment accepted", logger.Fields(
		logger.FieldSessionID, sessionID,
		logger.FieldDeviceID, deviceID,
		"index", index,
		"size", len(payload),
	))
	return nil
}

// Finalize concatenates the session's fragments in index order and uploads
// the assembled recording to the blob store. With expectedCount zero the
// highest received index determines the expected set. Gaps return
// INCOMPLETE_SESSION listing the missing indices and reopen the session so
// the client can send them and retry. A repeated finalize on a completed
// session returns the original result.
func (s *Store) Finalize(ctx context.Context, sessionID string, expectedCount uint32, declaredDurationSec float64) (*FinalizeResult, error) {
	if sessionID == "" {
		return nil, errors.MissingField("session_id")
	}

	sess, ok := s.lookup(sessionID)
	if !ok {
		if s.wasEvicted(sessionID) {
			return nil, errors.SessionExpired(sessionID)
		}
		return nil, errors.NotFound("session", sessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state {
	case stateExpired:
		return nil, errors.SessionExpired(sessionID)
	case StateFinalizing:
		return nil, errors.SessionFinalizing(sessionID)
	case StateComplete:
		return &FinalizeResult{
			RecordingPath:       sess.recordingPath,
			FragmentCount:       sess.fragmentCount,
			SizeBytes:           sess.recordingSize,
			DeclaredDurationSec: declaredDurationSec,
		}, nil
	}

	if len(sess.fragments) == 0 {
		n := expectedCount
		if n == 0 {
			n = 1
		}
		missing := make([]uint32, n)
		for i := range missing {
			missing[i] = uint32(i)
		}
		return nil, errors.IncompleteSession(sessionID, missing)
	}

	expected := expectedCount
	if expected == 0 {
		expected = sess.highestIndex() + 1
	} else if high := sess.highestIndex(); high >= expected {
		return nil, errors.InvalidInput("fragment_count",
			fmt.Sprintf("received fragment index %d exceeds declared count %d", high, expected))
	}

	if missing := sess.missingIndices(expected); len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, errors.IncompleteSession(sessionID, missing)
	}

	sess.state = StateFinalizing
	sess.lastActivity = s.now()

	var buf bytes.Buffer
	for i := uint32(0); i < expected; i++ {
		buf.Write(sess.fragments[i].data)
	}

	path := fmt.Sprintf("recordings/%s.raw", sessionID)
	if err := s.blobs.Upload(ctx, path, bytes.NewReader(buf.Bytes())); err != nil {
		sess.state = StateOpen
		return nil, errors.Internal(err).WithDetail(logger.FieldSessionID, sessionID)
	}

	sess.state = StateComplete
	sess.completedAt = s.now()
	sess.recordingPath = path
	sess.fragmentCount = int(expected)
	sess.recordingSize = int64(buf.Len())
	sess.fragments = nil // released; the blob store owns the bytes now

	s.log.Info("session finalized", logger.Fields(
		logger.FieldSessionID, sessionID,
		"fragments", expected,
		"size", sess.recordingSize,
	))

	return &FinalizeResult{
		RecordingPath:       path,
		FragmentCount:       int(expected),
		SizeBytes:           sess.recordingSize,
		DeclaredDurationSec: declaredDurationSec,
	}, nil
}

// Sweep evicts idle open sessions and completed sessions past retention, and
// prunes old tombstones. Called periodically by the janitor; exported so
// operators (and tests) can force a pass.
func (s *Store) Sweep() {
	now := s.now()

	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	for _, sess := range candidates {
		sess.mu.Lock()
		evict := false
		switch sess.state {
		case StateOpen:
			evict = now.Sub(sess.lastActivity) > s.cfg.IdleTTL
		case StateComplete:
			evict = now.Sub(sess.completedAt) > s.cfg.CompletedRetention
		}
		if evict {
			discarded := len(sess.fragments)
			sess.state = stateExpired
			sess.fragments = nil
			sess.mu.Unlock()

			s.mu.Lock()
			delete(s.sessions, sess.id)
			s.evicted[sess.id] = now
			s.mu.Unlock()

			s.log.Info("session evicted", logger.Fields(
				logger.FieldSessionID, sess.id,
				"discarded_fragments", discarded,
			))
			continue
		}
		sess.mu.Unlock()
	}

	s.mu.Lock()
	for id, at := range s.evicted {
		if now.Sub(at) > s.cfg.TombstoneTTL {
			delete(s.evicted, id)
		}
	}
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) getOrCreate(sessionID, deviceID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, evicted := s.evicted[sessionID]; evicted {
		return nil, errors.SessionExpired(sessionID)
	}
	if sess, ok = s.sessions[sessionID]; ok {
		return sess, nil
	}
	sess = newSession(sessionID, deviceID, s.now())
	s.sessions[sessionID] = sess
	s.log.Debug("session opened", logger.Fields(
		logger.FieldSessionID, sessionID,
		logger.FieldDeviceID, deviceID,
	))
	return sess, nil
}

func (s *Store) lookup(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

func (s *Store) wasEvicted(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.evicted[sessionID]
	return ok
}
