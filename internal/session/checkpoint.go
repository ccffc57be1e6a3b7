package session

import (
	"sync"
	"time"

	"github.com/draftmate/draftmate/internal/types"
)

// Checkpoint is the snapshot of a session's last terminal turn. It lets
// the user's next turn resume conversational continuity without touching
// the durable continuity store.
type Checkpoint struct {
	TurnID       string                  `json:"turn_id"`
	Outcome      types.Outcome           `json:"outcome"`
	Draft        types.Draft             `json:"draft"`
	Report       *types.ValidationReport `json:"report,omitempty"`
	RecipientKey string                  `json:"recipient_key"`
	RetryCount   int                     `json:"retry_count"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// CheckpointStore keeps checkpoints in memory, keyed by session id.
// Entries are never visible across session ids. Safe for concurrent use.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]Checkpoint
}

// NewCheckpointStore creates an empty checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[string]Checkpoint),
	}
}

// Put stores the checkpoint for a session id, replacing any prior entry.
func (s *CheckpointStore) Put(sessionID string, cp Checkpoint) {
	if sessionID == "" {
		return
	}
	cp.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[sessionID] = cp
}

// Get returns the checkpoint for a session id, if present.
func (s *CheckpointStore) Get(sessionID string) (Checkpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[sessionID]
	return cp, ok
}

// Delete removes a session's checkpoint.
func (s *CheckpointStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, sessionID)
}
