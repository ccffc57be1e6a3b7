package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (c *fakeComponent) Start(ctx context.Context) error {
	*c.log = append(*c.log, "start:"+c.name)
	return c.startErr
}

func (c *fakeComponent) Stop(ctx context.Context) error {
	*c.log = append(*c.log, "stop:"+c.name)
	return c.stopErr
}

func (c *fakeComponent) Name() string { return c.name }

func TestManagerStartsInOrderStopsInReverse(t *testing.T) {
	var log []string
	m := NewManager()
	require.NoError(t, m.Register(&fakeComponent{name: "a", log: &log}))
	require.NoError(t, m.Register(&fakeComponent{name: "b", log: &log}))
	require.NoError(t, m.Register(&fakeComponent{name: "c", log: &log}))

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))

	assert.Equal(t, []string{
		"start:a", "start:b", "start:c",
		"stop:c", "stop:b", "stop:a",
	}, log)
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var log []string
	m := NewManager()
	require.NoError(t, m.Register(&fakeComponent{name: "a", log: &log}))
	require.NoError(t, m.Register(&fakeComponent{name: "b", log: &log, startErr: errors.New("boom")}))
	require.NoError(t, m.Register(&fakeComponent{name: "c", log: &log}))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")

	// c never started; a is stopped during rollback.
	assert.Equal(t, []string{"start:a", "start:b", "stop:a"}, log)
}

func TestManagerStopContinuesPastErrors(t *testing.T) {
	var log []string
	m := NewManager()
	require.NoError(t, m.Register(&fakeComponent{name: "a", log: &log}))
	require.NoError(t, m.Register(&fakeComponent{name: "b", log: &log, stopErr: errors.New("stuck")}))

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, log)
}

func TestManagerRejectsBadRegistrations(t *testing.T) {
	m := NewManager()
	assert.Error(t, m.Register(nil))

	var log []string
	c := &fakeComponent{name: "a", log: &log}
	require.NoError(t, m.Register(c))
	assert.Error(t, m.Register(c), "duplicate registration")

	assert.Error(t, m.Register(&fakeComponent{name: "", log: &log}))
}
