package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

func newUsersTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: value.I64},
			{Name: "name", Type: value.Str},
		},
	}
}

func TestAppendAndScanData(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertSchema(newUsersTable()))

	keys, err := s.AppendData("users", [][]value.Value{
		{value.NewI64(1), value.NewStr("a")},
		{value.NewI64(2), value.NewStr("b")},
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)

	iter, err := s.ScanData("users")
	require.NoError(t, err)
	var rows []storage.Row
	for {
		row, ok, err := iter.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "a", mustStr(rows[0].Values[1]))
}

func TestFetchDataByKey(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertSchema(newUsersTable()))
	keys, err := s.AppendData("users", [][]value.Value{{value.NewI64(5), value.NewStr("x")}})
	require.NoError(t, err)

	row, ok, err := s.FetchData("users", keys[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", mustStr(row[1]))

	_, ok, err = s.FetchData("users", []byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteData(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertSchema(newUsersTable()))
	keys, err := s.AppendData("users", [][]value.Value{{value.NewI64(1), value.NewStr("a")}})
	require.NoError(t, err)
	require.NoError(t, s.DeleteData("users", keys))

	_, ok, err := s.FetchData("users", keys[0])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertSchema(newUsersTable()))
	_, err := s.AppendData("users", [][]value.Value{{value.NewI64(1), value.NewStr("a")}})
	require.NoError(t, err)

	tx, err := s.Begin(false)
	require.NoError(t, err)
	_, err = s.AppendData("users", [][]value.Value{{value.NewI64(2), value.NewStr("b")}})
	require.NoError(t, err)
	require.NoError(t, s.Rollback(tx))

	iter, err := s.ScanData("users")
	require.NoError(t, err)
	var count int
	for {
		_, ok, err := iter.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 1, count)
}

func TestScanIndexedDataRejectsUnknownIndex(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertSchema(newUsersTable()))
	_, err := s.ScanIndexedData("users", "no_such_index", true, nil)
	require.Error(t, err)
}

func mustStr(v value.Value) string {
	s, _ := v.Str()
	return s
}
