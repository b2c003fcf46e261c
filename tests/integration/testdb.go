// Package integration exercises the persistence layer against a real SQL
// engine. Tests run on an in-memory SQLite database with the schema derived
// from the GORM models, so they cover actual SQL generation and scanning
// without requiring a PostgreSQL instance. Queries that depend on
// PostgreSQL-only constructs (ILIKE search, jsonb role filters) are covered
// by the sqlmock tests in the persistence package instead.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crm/backend/internal/infrastructure/persistence/models"
)

// TestDB wraps a per-test database connection
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB opens a fresh in-memory database and creates the CRM schema.
// Each call yields a fully isolated database that vanishes when the
// connection closes at the end of the test.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(
		&models.ContactModel{},
		&models.ContactHistoryModel{},
		&models.VATValidationRecordModel{},
		&models.WhitelistVerificationRecordModel{},
		&models.TimelineEventModel{},
	)
	require.NoError(t, err, "Failed to create schema")

	tdb := &TestDB{DB: db, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// Close closes the underlying connection, discarding the database
func (tdb *TestDB) Close() {
	sqlDB, err := tdb.DB.DB()
	if err != nil {
		tdb.t.Logf("Warning: failed to get underlying sql.DB: %v", err)
		return
	}
	_ = sqlDB.Close()
}
