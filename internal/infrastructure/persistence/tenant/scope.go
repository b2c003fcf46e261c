// Package tenant provides multi-tenant query scoping for GORM.
//
// Every tenant-owned table carries a tenant_id column; repositories apply
// Scope to keep cross-tenant rows out of result sets:
//
//	db.Scopes(tenant.Scope(tenantID)).Find(&contacts)
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/infrastructure/logger"
)

// ErrTenantIDRequired is returned when no tenant ID is present in the context
var ErrTenantIDRequired = errors.New("tenant_id is required but not found in context")

// ErrInvalidTenantID is returned when the tenant ID is not a UUID
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// Scope filters a query to one tenant's rows
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// FromContext extracts and validates the tenant ID carried in the request
// context.
func FromContext(ctx context.Context) (uuid.UUID, error) {
	raw := logger.GetTenantID(ctx)
	if raw == "" {
		return uuid.Nil, ErrTenantIDRequired
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidTenantID
	}
	return tenantID, nil
}

// ScopeFromContext builds a tenant scope from the request context. Queries
// made without a tenant in context are refused rather than run unscoped.
func ScopeFromContext(ctx context.Context) (func(db *gorm.DB) *gorm.DB, error) {
	tenantID, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return Scope(tenantID), nil
}
