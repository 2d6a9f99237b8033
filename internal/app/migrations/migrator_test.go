package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListVersionedFiles(t *testing.T) {
	dir := t.TempDir()

	// Created out of order on purpose.
	for _, name := range []string{
		"002_search_indexes.sql",
		"010_variant_backfill.sql",
		"001_init.sql",
		"dev_reset.sql",
		"README.md",
		"003_notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "004_archive.sql"), 0o755))

	got, err := listVersionedFiles(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"001_init.sql", "002_search_indexes.sql", "010_variant_backfill.sql"}, got)
}

func TestListVersionedFiles_MissingDirectory(t *testing.T) {
	_, err := listVersionedFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"001_init.sql", "001"},
		{"002_search_indexes.sql", "002"},
		{"010_variant_backfill.sql", "010"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, migrationVersion(tt.filename), "migrationVersion(%q)", tt.filename)
	}
}

func TestVersionedFilePattern(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"001_init.sql", true},
		{"12_add_column.sql", true},
		{"dev_reset.sql", false},
		{"001_init.sql.bak", false},
		{"init.sql", false},
		{"001-init.sql", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, versionedFilePattern.MatchString(tt.filename), "pattern match for %q", tt.filename)
	}
}
