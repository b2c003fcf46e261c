package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/verification"
)

func TestGormVATRecordRepository_FindLatestByNumberSince(t *testing.T) {
	t.Run("returns the newest record within the window", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVATRecordRepository(gormDB)

		tenantID := uuid.New()
		recordID := uuid.New()
		validatedAt := time.Now().Add(-2 * time.Hour)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "vat_number", "country_code", "valid", "status", "validated_at"}).
			AddRow(recordID, tenantID, "PL5252248481", "PL", true, "VALID", validatedAt)

		mock.ExpectQuery(`SELECT \* FROM "vat_validation_records" WHERE tenant_id = \$1 AND \(vat_number = \$2 AND validated_at >= \$3\) ORDER BY validated_at DESC`).
			WillReturnRows(rows)

		record, err := repo.FindLatestByNumberSince(context.Background(), tenantID, "PL5252248481", time.Now().Add(-24*time.Hour))

		require.NoError(t, err)
		assert.Equal(t, recordID, record.ID)
		assert.Equal(t, verification.VATStatusValid, record.Status)
		assert.True(t, record.Valid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps an empty window to not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVATRecordRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "vat_validation_records"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindLatestByNumberSince(context.Background(), uuid.New(), "PL5252248481", time.Now())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormVATRecordRepository_FindByClient(t *testing.T) {
	t.Run("pages results newest first", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVATRecordRepository(gormDB)

		tenantID := uuid.New()
		clientID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "vat_number", "status", "client_id"}).
			AddRow(uuid.New(), tenantID, "PL5252248481", "VALID", clientID)

		mock.ExpectQuery(`SELECT \* FROM "vat_validation_records" WHERE tenant_id = \$1 AND client_id = \$2 ORDER BY validated_at DESC LIMIT \$3`).
			WillReturnRows(rows)

		records, err := repo.FindByClient(context.Background(), tenantID, clientID, shared.Filter{Page: 1, PageSize: 20})

		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormWhitelistRecordRepository_FindByID(t *testing.T) {
	t.Run("finds existing record", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormWhitelistRecordRepository(gormDB)

		tenantID := uuid.New()
		recordID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "nip", "status", "account_on_list"}).
			AddRow(recordID, tenantID, "5252248481", "ON_WHITELIST", true)

		mock.ExpectQuery(`SELECT \* FROM "whitelist_verification_records" WHERE tenant_id = \$1 AND id = \$2`).
			WillReturnRows(rows)

		record, err := repo.FindByID(context.Background(), tenantID, recordID)

		require.NoError(t, err)
		assert.Equal(t, verification.WhitelistStatusOnWhitelist, record.Status)
		require.NotNil(t, record.AccountOnList)
		assert.True(t, *record.AccountOnList)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing record to not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormWhitelistRecordRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "whitelist_verification_records"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
