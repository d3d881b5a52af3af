package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TemirB/usercache/internal/domain"
)

func TestTable(t *testing.T) {
	ctx := context.Background()
	seed := map[uint32]string{1: "Frank Sinatra", 5: "Darth Vader"}
	tbl := NewTable(seed)

	// The table owns a copy of the seed.
	seed[7] = "ignored"
	require.Equal(t, 2, tbl.Len())

	name, err := tbl.NameByID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "Darth Vader", name)

	_, err = tbl.NameByID(ctx, 10)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, tbl.Upsert(ctx, domain.User{ID: 10, Name: "John Lennon"}))
	name, err = tbl.NameByID(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "John Lennon", name)

	require.NoError(t, tbl.Delete(ctx, 1))
	require.NoError(t, tbl.Delete(ctx, 1))
	_, err = tbl.NameByID(ctx, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)

	ids, err := tbl.RecentUserIDs(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []uint32{5}, ids)

	ids, err = tbl.RecentUserIDs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []uint32{5, 10}, ids)
}

func TestNewTableNilSeed(t *testing.T) {
	tbl := NewTable(nil)
	require.Zero(t, tbl.Len())
	require.NoError(t, tbl.Upsert(context.Background(), domain.User{ID: 1, Name: "x"}))
	require.Equal(t, 1, tbl.Len())
}
