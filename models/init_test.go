package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// dryRunDB renders Postgres SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=nexusdesk dbname=nexusdesk sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestSeedInsert_LetsDatabaseAssignIDs(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return seedInsert(tx, DefaultMessages())
	})

	assert.True(t, strings.HasPrefix(sql, `INSERT INTO "messages" ("customer",`), sql)
	assert.NotContains(t, sql, `"id",`)
	assert.Contains(t, sql, `RETURNING "id"`)
	assert.Contains(t, sql, "Alice Chen")
}

func TestSeedInsert_KeepsSeedOrder(t *testing.T) {
	db := dryRunDB(t)
	msgs := DefaultMessages()

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return seedInsert(tx, msgs)
	})

	last := -1
	for _, m := range DefaultMessages() {
		idx := strings.Index(sql, m.Customer)
		require.GreaterOrEqual(t, idx, 0, m.Customer)
		assert.Greater(t, idx, last, "%s out of order", m.Customer)
		last = idx
	}
}

func TestSyncMessageSequence_SQL(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return SyncMessageSequence(tx)
	})

	assert.Contains(t, sql, "setval(pg_get_serial_sequence('messages', 'id')")
	assert.Contains(t, sql, "COALESCE(MAX(id), 1)")
	assert.Contains(t, sql, "FROM messages")
}
