package store

import (
	"context"
	"sync"
	"time"

	"github.com/draftmate/draftmate/internal/types"
)

// MemoryStores bundles in-memory implementations of all three stores.
// Used by tests and by the draft command when no database is configured.
type MemoryStores struct {
	Templates  *MemoryTemplateStore
	Profiles   *MemoryProfileStore
	Continuity *MemoryContinuityStore
}

// NewMemoryStores creates empty in-memory stores.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		Templates:  NewMemoryTemplateStore(),
		Profiles:   NewMemoryProfileStore(),
		Continuity: NewMemoryContinuityStore(),
	}
}

// MemoryTemplateStore is a map-backed TemplateStore.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]Template            // by id
	byPair    map[[2]string][]string         // (intent, tone) -> ids, insert order
}

// NewMemoryTemplateStore creates an empty in-memory template store.
func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{
		templates: make(map[string]Template),
		byPair:    make(map[[2]string][]string),
	}
}

// UpsertTemplate implements TemplateStore.
func (s *MemoryTemplateStore) UpsertTemplate(_ context.Context, tpl Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.templates[tpl.ID]; ok {
		s.removeFromPair(old)
	}
	s.templates[tpl.ID] = tpl
	pair := [2]string{string(tpl.Intent), string(tpl.Tone)}
	s.byPair[pair] = append(s.byPair[pair], tpl.ID)
	return nil
}

func (s *MemoryTemplateStore) removeFromPair(tpl Template) {
	pair := [2]string{string(tpl.Intent), string(tpl.Tone)}
	ids := s.byPair[pair]
	for i, id := range ids {
		if id == tpl.ID {
			s.byPair[pair] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// BestTemplate implements TemplateStore.
func (s *MemoryTemplateStore) BestTemplate(_ context.Context, intent types.Intent, tone types.Tone) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pair := range fallbackChain(intent, tone) {
		ids := s.byPair[[2]string{pair[0], pair[1]}]
		if len(ids) > 0 {
			tpl := s.templates[ids[0]]
			return &tpl, nil
		}
	}
	return nil, nil
}

// MemoryProfileStore is a map-backed ProfileStore.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]types.Profile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]types.Profile)}
}

// Profile implements ProfileStore. Unknown ids yield an empty profile.
func (s *MemoryProfileStore) Profile(_ context.Context, userID string) (types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return types.Profile{}, nil
	}
	out := make(types.Profile, len(profile))
	for k, v := range profile {
		out[k] = v
	}
	return out, nil
}

// UpsertProfile implements ProfileStore.
func (s *MemoryProfileStore) UpsertProfile(_ context.Context, userID string, profile types.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make(types.Profile, len(profile))
	for k, v := range profile {
		cp[k] = v
	}
	s.profiles[userID] = cp
	return nil
}

// MemoryContinuityStore is a map-backed ContinuityStore with per-pair
// entries. The composite key gives the same isolation guarantee as the
// sqlite primary key (user_id, recipient_key).
type MemoryContinuityStore struct {
	mu      sync.RWMutex
	entries map[[2]string]ContinuityEntry
}

// NewMemoryContinuityStore creates an empty in-memory continuity store.
func NewMemoryContinuityStore() *MemoryContinuityStore {
	return &MemoryContinuityStore{entries: make(map[[2]string]ContinuityEntry)}
}

// Summary implements ContinuityStore.
func (s *MemoryContinuityStore) Summary(_ context.Context, userID, recipientKey string) (*types.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[[2]string{userID, recipientKey}]
	if !ok {
		return nil, nil
	}
	summary := cloneSummary(entry.Summary)
	return &summary, nil
}

// Upsert implements ContinuityStore.
func (s *MemoryContinuityStore) Upsert(_ context.Context, userID, recipientKey string, summary types.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{userID, recipientKey}
	now := time.Now().UTC()
	entry, ok := s.entries[key]
	if !ok {
		entry = ContinuityEntry{
			UserID:       userID,
			RecipientKey: recipientKey,
			CreatedAt:    now,
		}
	}
	entry.Summary = cloneSummary(summary)
	entry.UpdatedAt = now
	s.entries[key] = entry
	return nil
}

// Entry returns the full entry with timestamps, for tests and debugging.
func (s *MemoryContinuityStore) Entry(userID, recipientKey string) (ContinuityEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[[2]string{userID, recipientKey}]
	return entry, ok
}

func cloneSummary(in types.Summary) types.Summary {
	out := in
	out.History = append([]string(nil), in.History...)
	return out
}
