package storage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/pkg/errors"
	"github.com/fedwatch/fedwatch/pkg/storage"
)

func backends(t *testing.T) map[string]storage.Storage {
	t.Helper()

	db, err := storage.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]storage.Storage{
		"memory": storage.NewInMemoryStorage(),
		"badger": storage.NewBadgerStorage(db, "participants", storage.JSONDecoder[participant.Participant]()),
	}
}

func TestCreateAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p := participant.Participant{ID: "site-1", Name: "ward-a", NodeID: "hospital_01"}
			require.NoError(t, s.Create(context.Background(), p.ID, p))

			got, err := s.Get(context.Background(), p.ID)
			require.NoError(t, err)
			stored, ok := got.(participant.Participant)
			require.True(t, ok)
			assert.Equal(t, p.ID, stored.ID)
			assert.Equal(t, p.NodeID, stored.NodeID)

			err = s.Create(context.Background(), p.ID, p)
			assert.ErrorIs(t, err, errors.ErrEntityExists)

			_, err = s.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, errors.ErrNotFound)

			err = s.Create(context.Background(), "", p)
			assert.ErrorIs(t, err, errors.ErrEmptyKey)
		})
	}
}

func TestUpdate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p := participant.Participant{ID: "site-1", Name: "ward-a"}
			require.NoError(t, s.Create(context.Background(), p.ID, p))

			p.Name = "ward-b"
			require.NoError(t, s.Update(context.Background(), p.ID, p))

			got, err := s.Get(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, "ward-b", got.(participant.Participant).Name)

			err = s.Update(context.Background(), "missing", p)
			assert.ErrorIs(t, err, errors.ErrNotFound)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p := participant.Participant{ID: "site-1"}
			require.NoError(t, s.Create(context.Background(), p.ID, p))
			require.NoError(t, s.Delete(context.Background(), p.ID))

			_, err := s.Get(context.Background(), p.ID)
			assert.ErrorIs(t, err, errors.ErrNotFound)
		})
	}
}

func TestListPagination(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := range 5 {
				id := fmt.Sprintf("site-%d", i)
				require.NoError(t, s.Create(context.Background(), id, participant.Participant{ID: id}))
			}

			result, total, err := s.List(context.Background(), 0, 10)
			require.NoError(t, err)
			assert.Equal(t, uint64(5), total)
			assert.Len(t, result, 5)

			result, total, err = s.List(context.Background(), 2, 2)
			require.NoError(t, err)
			assert.Equal(t, uint64(5), total)
			require.Len(t, result, 2)
			// Keys come back in sorted order regardless of backend.
			assert.Equal(t, "site-2", result[0].(participant.Participant).ID)
			assert.Equal(t, "site-3", result[1].(participant.Participant).ID)

			result, total, err = s.List(context.Background(), 10, 2)
			require.NoError(t, err)
			assert.Equal(t, uint64(5), total)
			assert.Empty(t, result)
		})
	}
}

func TestNewRegistries(t *testing.T) {
	regs, err := storage.NewRegistries(storage.Config{Type: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, regs.Participants)
	assert.Nil(t, regs.Closer)

	regs, err = storage.NewRegistries(storage.Config{
		Type:       "badger",
		BadgerPath: t.TempDir(),
	})
	require.NoError(t, err)
	require.NotNil(t, regs.Closer)
	defer regs.Closer.Close()

	p := participant.Participant{ID: "site-1"}
	require.NoError(t, regs.Participants.Create(context.Background(), p.ID, p))
	got, err := regs.Participants.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.(participant.Participant).ID)

	_, err = storage.NewRegistries(storage.Config{Type: "redis"})
	assert.Error(t, err)
}
