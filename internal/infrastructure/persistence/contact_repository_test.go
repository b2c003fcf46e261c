package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/domain/shared"
)

// newMockDB creates a GORM handle backed by a mocked SQL connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormContactRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds existing contact", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		tenantID := uuid.New()
		contactID := uuid.New()
		clientID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "client_id", "first_name", "last_name", "email", "roles", "is_primary", "is_active", "portal_status"}).
			AddRow(contactID, tenantID, clientID, "Anna", "Kowalska", "anna@example.com", `["ACCOUNTANT"]`, true, true, "NONE")

		mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, contactID, 1).
			WillReturnRows(rows)

		contact, err := repo.FindByIDForTenant(context.Background(), tenantID, contactID)

		require.NoError(t, err)
		assert.Equal(t, contactID, contact.ID)
		assert.Equal(t, "Anna", contact.FirstName)
		assert.Equal(t, []client.Role{client.RoleAccountant}, contact.Roles)
		assert.True(t, contact.IsPrimary)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing contact to not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		tenantID := uuid.New()
		contactID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "contacts"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForTenant(context.Background(), tenantID, contactID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormContactRepository_FindByClient(t *testing.T) {
	t.Run("excludes soft-deleted rows and orders primary first", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		tenantID := uuid.New()
		clientID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "client_id", "first_name", "last_name", "is_primary", "is_active"}).
			AddRow(uuid.New(), tenantID, clientID, "Anna", "Kowalska", true, true).
			AddRow(uuid.New(), tenantID, clientID, "Jan", "Nowak", false, true)

		mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND \(client_id = \$2 AND deleted_at IS NULL\) ORDER BY is_primary DESC, last_name ASC, first_name ASC`).
			WithArgs(tenantID, clientID).
			WillReturnRows(rows)

		contacts, err := repo.FindByClient(context.Background(), tenantID, clientID, client.ListFilter{})

		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.True(t, contacts[0].IsPrimary)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies search filter", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		tenantID := uuid.New()
		clientID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE .* first_name ILIKE .*`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		contacts, err := repo.FindByClient(context.Background(), tenantID, clientID, client.ListFilter{Search: "kowal"})

		require.NoError(t, err)
		assert.Empty(t, contacts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_CountOtherActive(t *testing.T) {
	t.Run("counts active contacts excluding the given one", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		tenantID := uuid.New()
		clientID := uuid.New()
		excludeID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "contacts" WHERE tenant_id = \$1 AND \(client_id = \$2 AND id <> \$3 AND is_active = \$4 AND deleted_at IS NULL\)`).
			WithArgs(tenantID, clientID, excludeID, true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountOtherActive(context.Background(), tenantID, clientID, excludeID)

		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_TransferPrimary(t *testing.T) {
	t.Run("clears and reassigns the flag in one transaction", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		tenantID := uuid.New()
		clientID := uuid.New()
		newPrimaryID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "contacts" SET "is_primary"=\$1,"updated_at"=\$2 WHERE tenant_id = \$3 AND client_id = \$4 AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`UPDATE "contacts" SET "is_primary"=\$1,"updated_at"=\$2 WHERE tenant_id = \$3 AND client_id = \$4 AND id = \$5 AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.TransferPrimary(context.Background(), tenantID, clientID, newPrimaryID)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the target does not exist", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "contacts" SET "is_primary"=`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`UPDATE "contacts" SET "is_primary"=`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.TransferPrimary(context.Background(), uuid.New(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_Save(t *testing.T) {
	t.Run("saves contact", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormContactRepository(gormDB)

		contact, err := client.NewContact(uuid.New(), uuid.New(), uuid.New(), client.NewContactParams{
			FirstName: "Anna",
			LastName:  "Kowalska",
			Email:     "anna@example.com",
			Roles:     []client.Role{client.RoleAccountant},
		})
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "contacts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(context.Background(), contact)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
