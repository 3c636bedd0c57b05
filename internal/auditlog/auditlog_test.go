package auditlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndEntries(t *testing.T) {
	l := New(t.TempDir())

	require.NoError(t, l.Record("imp-1", "accepted", "boursorama export.csv"))
	require.NoError(t, l.Record("imp-1", "processed", "Imported 42 transactions, 5 duplicates skipped"))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "imp-1", entries[0].ImportID)
	assert.Equal(t, "accepted", entries[0].Action)
	assert.Equal(t, "processed", entries[1].Action)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestEntries_NoFile(t *testing.T) {
	entries, err := New(t.TempDir()).Entries()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestNilLogIsSafe(t *testing.T) {
	var l *Log
	assert.NoError(t, l.Record("imp-1", "accepted", ""))
	entries, err := l.Entries()
	require.NoError(t, err)
	assert.Nil(t, entries)
}
