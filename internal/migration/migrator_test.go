package migration

import (
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/database"
)

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := fs.ReadDir(schemaFS(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_portal_activity.sql", entries[0].Name())
}

func TestGooseDialect(t *testing.T) {
	for in, want := range map[string]goose.Dialect{
		"postgres": goose.DialectPostgres,
		"pg":       goose.DialectPostgres,
		"mysql":    goose.DialectMySQL,
		"sqlite":   goose.DialectSQLite3,
	} {
		got, err := gooseDialect(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}

func TestNewRequiresJournal(t *testing.T) {
	_, err := New(config.Config{}, &database.Connections{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrJournalDisabled)
}
