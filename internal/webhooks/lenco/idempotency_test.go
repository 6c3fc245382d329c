package lencowebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	keys   map[string]string
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "zm:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, IdempotencyScope)
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "imp_a_b_1:successful")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "imp_a_b_1:successful")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Contains(t, store.keys, "zm:idempotency:lenco-webhook:imp_a_b_1:successful")

	require.NoError(t, guard.Delete(context.Background(), "imp_a_b_1:successful"))
	seen, err = guard.CheckAndMark(context.Background(), "imp_a_b_1:successful")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestIdempotencyGuardValidation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "scope")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(newMemoryStore(), -time.Second, "scope")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(newMemoryStore(), time.Hour, "")
	assert.Error(t, err)

	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "scope")
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, guard.Delete(context.Background(), ""))
}

func TestIdempotencyGuardWrapsStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.setErr = errors.New("redis down")
	guard, err := NewIdempotencyGuard(store, time.Hour, "scope")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "id")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.setErr)
}
