package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmate/draftmate/internal/types"
)

func TestNewManagerRequiresSalt(t *testing.T) {
	_, err := NewManager("")
	require.ErrorIs(t, err, ErrEmptySalt)

	m, err := NewManager("s3cret")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestDeriveIDDeterministic(t *testing.T) {
	m, err := NewManager("s3cret")
	require.NoError(t, err)

	id1 := m.DeriveID("user-1")
	id2 := m.DeriveID("user-1")
	assert.Equal(t, id1, id2, "same user, same salt, same id")
	assert.True(t, strings.HasPrefix(id1, "session_"))

	other := m.DeriveID("user-2")
	assert.NotEqual(t, id1, other)
}

func TestDeriveIDDependsOnSalt(t *testing.T) {
	m1, err := NewManager("salt-a")
	require.NoError(t, err)
	m2, err := NewManager("salt-b")
	require.NoError(t, err)

	assert.NotEqual(t, m1.DeriveID("user-1"), m2.DeriveID("user-1"))
}

func TestCheckpointStoreIsolation(t *testing.T) {
	store := NewCheckpointStore()

	store.Put("session_aaa", Checkpoint{TurnID: "t1", Outcome: types.OutcomePass})
	store.Put("session_bbb", Checkpoint{TurnID: "t2", Outcome: types.OutcomeFail})

	cp, ok := store.Get("session_aaa")
	require.True(t, ok)
	assert.Equal(t, "t1", cp.TurnID)
	assert.Equal(t, types.OutcomePass, cp.Outcome)
	assert.False(t, cp.UpdatedAt.IsZero())

	_, ok = store.Get("session_ccc")
	assert.False(t, ok, "unknown session id must not see other entries")

	store.Delete("session_aaa")
	_, ok = store.Get("session_aaa")
	assert.False(t, ok)
}

func TestCheckpointStoreIgnoresEmptySessionID(t *testing.T) {
	store := NewCheckpointStore()
	store.Put("", Checkpoint{TurnID: "t1"})
	_, ok := store.Get("")
	assert.False(t, ok)
}
