package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gluedb/schema"
	"gluedb/storage/memory"
	"gluedb/value"
)

func TestReadVersionDefaultsToOneWhenUnset(t *testing.T) {
	s := memory.New()
	v, err := ReadVersion(s)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}

func TestMigrateToLatestAdvancesVersion(t *testing.T) {
	s := memory.New()
	require.NoError(t, MigrateToLatest(s, nil))

	v, err := ReadVersion(s)
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, v)
}

func TestMigrateToLatestIsIdempotent(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.InsertSchema(&schema.Table{
		Name:       "widgets",
		PrimaryKey: "id",
		Columns:    []schema.Column{{Name: "id", Type: value.I64}},
	}))
	_, err := s.AppendData("widgets", [][]value.Value{{value.NewI64(1)}})
	require.NoError(t, err)

	require.NoError(t, MigrateToLatest(s, nil))
	require.NoError(t, MigrateToLatest(s, nil))

	v, err := ReadVersion(s)
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, v)

	iter, err := s.ScanData("widgets")
	require.NoError(t, err)
	row, ok, err := iter.Next()
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := row.Values[0].Int64()
	require.Equal(t, int64(1), n)
}

func TestMigrateToLatestRejectsFutureVersion(t *testing.T) {
	s := memory.New()
	require.NoError(t, MigrateToLatest(s, nil))

	require.NoError(t, writeVersion(s, CurrentVersion+1))
	err := MigrateToLatest(s, nil)
	require.Error(t, err)
}
