package db

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortsAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("docs")},
		"notes.sql":      {Data: []byte("SELECT 0;")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 3)

	versions := make([]int, 0, len(got))
	for _, m := range got {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []int{1, 2, 10}, versions)
	assert.Equal(t, "SELECT 1;", got[0].SQL)
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(embedded, "migrations")
	require.NoError(t, err)
	got, err := LoadMigrations(sub)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), 2, "expected embedded migrations")

	var all strings.Builder
	for _, m := range got {
		all.WriteString(m.SQL)
	}
	for _, table := range []string{"tenants", "professionals", "patients", "availability_rules", "appointments", "event_logs"} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", "missing table %s", table)
	}
	for i, m := range got {
		assert.Equal(t, i+1, m.Version, "migration %d: versions must be contiguous", i)
	}
}
