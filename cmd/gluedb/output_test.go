package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/executor"
	"gluedb/value"
)

func TestParseResultFormatDefaultsToTable(t *testing.T) {
	f, err := parseResultFormat("")
	require.NoError(t, err)
	assert.Equal(t, formatTable, f)
}

func TestParseResultFormatCaseInsensitive(t *testing.T) {
	f, err := parseResultFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, formatJSON, f)
}

func TestParseResultFormatInvalid(t *testing.T) {
	f, err := parseResultFormat("yaml")
	assert.Error(t, err)
	assert.Empty(t, f)
}

func selectPayload() executor.Payload {
	return executor.Payload{
		Statement: "SELECT",
		Labels:    []string{"id", "name"},
		Rows: [][]value.Value{
			{value.NewI64(1), value.NewStr("ann")},
			{value.NewI64(2), value.NewNull()},
		},
	}
}

func TestFormatPayloadTable(t *testing.T) {
	out, err := formatPayload(selectPayload(), formatTable)
	require.NoError(t, err)
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 row(s))")
}

func TestFormatPayloadSummary(t *testing.T) {
	out, err := formatPayload(selectPayload(), formatSummary)
	require.NoError(t, err)
	assert.Equal(t, "SELECT: 2 row(s)", out)
}

func TestFormatPayloadSummaryNonSelect(t *testing.T) {
	p := executor.Payload{Statement: "INSERT", Affected: 3}
	out, err := formatPayload(p, formatSummary)
	require.NoError(t, err)
	assert.Equal(t, "INSERT: 3 row(s) affected", out)
}

func TestFormatPayloadJSON(t *testing.T) {
	out, err := formatPayload(selectPayload(), formatJSON)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"statement": "SELECT"`))
	assert.True(t, strings.Contains(out, `"ann"`))
}

func TestFormatPayloadTableEmptyColumns(t *testing.T) {
	out, err := formatPayload(executor.Payload{Statement: "SELECT"}, formatTable)
	require.NoError(t, err)
	assert.Equal(t, "(no columns)\n", out)
}
