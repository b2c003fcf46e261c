package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/infrastructure/logger"
)

func TestFromContext(t *testing.T) {
	t.Run("should extract tenant id from context", func(t *testing.T) {
		tenantID := uuid.New()
		ctx, _ := logger.WithTenantID(context.Background(), zap.NewNop(), tenantID.String())

		got, err := FromContext(ctx)

		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	})

	t.Run("should fail on bare context", func(t *testing.T) {
		_, err := FromContext(context.Background())

		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("should fail on malformed tenant id", func(t *testing.T) {
		ctx, _ := logger.WithTenantID(context.Background(), zap.NewNop(), "not-a-uuid")

		_, err := FromContext(ctx)

		assert.ErrorIs(t, err, ErrInvalidTenantID)
	})
}

func TestScopeFromContext(t *testing.T) {
	t.Run("should refuse to build a scope without tenant", func(t *testing.T) {
		_, err := ScopeFromContext(context.Background())

		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("should build a scope for a valid tenant", func(t *testing.T) {
		ctx, _ := logger.WithTenantID(context.Background(), zap.NewNop(), uuid.NewString())

		scope, err := ScopeFromContext(ctx)

		require.NoError(t, err)
		assert.NotNil(t, scope)
	})
}
