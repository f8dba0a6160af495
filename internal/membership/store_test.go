package membership

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var joined = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore(storagetest.NewSQLite(t))
	ctx := context.Background()

	first := &Member{Name: "Ada Lovelace", JoinDate: joined}
	require.NoError(t, s.Create(ctx, first))
	second := &Member{Name: "Alan Turing", JoinDate: joined}
	require.NoError(t, s.Create(ctx, second))
	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.True(t, joined.Equal(got.JoinDate))

	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStoreList(t *testing.T) {
	s := NewStore(storagetest.NewSQLite(t))
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Create(ctx, &Member{Name: fmt.Sprintf("member %d", i), JoinDate: joined}))
	}

	members, total, err := s.List(ctx, storage.Page{Skip: 5, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, members, 2)
	assert.Equal(t, "member 5", members[0].Name)
	assert.Equal(t, "member 6", members[1].Name)

	members, total, err = s.List(ctx, storage.Page{Skip: 10, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NotNil(t, members)
	assert.Empty(t, members)
}

func TestStoreExists(t *testing.T) {
	db := storagetest.NewSQLite(t)
	s := NewStore(db)
	ctx := context.Background()
	m := &Member{Name: "Grace Hopper", JoinDate: joined}
	require.NoError(t, s.Create(ctx, m))

	ok, err := s.Exists(ctx, db, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, db, m.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)
}
