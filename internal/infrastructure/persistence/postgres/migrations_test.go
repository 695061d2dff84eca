package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrations_VersionsAreSequential(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}

// Порядок навигации - инвариант гейта: сортировочный номер уникален среди
// модулей и среди тем одного модуля, и это закреплено на уровне схемы.
func TestCatalogMigration_OrderUniqueness(t *testing.T) {
	assert.Contains(t, migration002Up,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_modules_sort_order ON modules(sort_order)")
	assert.Contains(t, migration002Up,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_topics_module_order ON topics(module_id, sort_order)")
}

func TestCompletionMigration_SetSemantics(t *testing.T) {
	// Составной первичный ключ делает вставку завершения идемпотентной.
	assert.Contains(t, migration003Up, "PRIMARY KEY (user_id, topic_id)")
}

func TestMigrations_DownReversesUp(t *testing.T) {
	for _, m := range GetMigrations() {
		assert.True(t, strings.Contains(m.DownSQL, "DROP TABLE"), "migration %d", m.Version)
	}
}
