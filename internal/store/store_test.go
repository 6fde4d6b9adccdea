package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplanner/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReplaceSwapsTheWholeSet(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	first := []model.Event{
		{ID: "1", Name: "Leilão A", Date: "2025-02-01", Time: "20:00", Tags: [2]string{"Nelore", "Machos"}},
		{ID: "2", Name: "Leilão B", Date: "2025-01-15"},
	}
	require.NoError(t, s.Replace(ctx, first))

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := []model.Event{{ID: "3", Name: "Feira", Date: "2025-03-01"}}
	require.NoError(t, s.Replace(ctx, second))

	got, err = s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestReplaceWithEmptySetClears(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Replace(ctx, []model.Event{{ID: "1", Name: "x", Date: "2025-01-01"}}))
	require.NoError(t, s.Replace(ctx, nil))

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceRollsBackOnDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	keep := []model.Event{{ID: "keep", Name: "x", Date: "2025-01-01"}}
	require.NoError(t, s.Replace(ctx, keep))

	err := s.Replace(ctx, []model.Event{
		{ID: "dup", Name: "a", Date: "2025-01-01"},
		{ID: "dup", Name: "b", Date: "2025-01-02"},
	})
	require.Error(t, err)

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, keep, got)
}

func TestBulkInsertAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.BulkInsert(ctx, []model.Event{{ID: "a", Name: "A", Date: "2025-01-02"}}))
	require.NoError(t, s.BulkInsert(ctx, []model.Event{{ID: "b", Name: "B", Date: "2025-01-01"}}))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	require.NoError(t, s.Clear(ctx))
	got, err = s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Replace(ctx, []model.Event{{ID: "m", Name: "M", Date: "2025-05-05"}}))
	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "planner.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, []model.Event{{ID: "p", Name: "P", Date: "2025-05-05"}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p", got[0].ID)
}
