package middleware

import (
	"net/http"

	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gin context keys set by the tenant middleware
const (
	TenantIDKey     = "tenant_id"
	UserIDKey       = "user_id"
	TenantHeaderKey = "X-Tenant-ID"
	UserHeaderKey   = "X-User-ID"
)

// TenantConfig holds configuration for the tenant middleware
type TenantConfig struct {
	// SkipPaths are paths served without tenant context
	SkipPaths []string
	// Required rejects requests with no tenant header when true
	Required bool
	// Logger for middleware warnings
	Logger *zap.Logger
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
		Required:  true,
		Logger:    nil,
	}
}

// Tenant extracts the tenant from the X-Tenant-ID header and makes it
// available both on the gin context and the request context
func Tenant() gin.HandlerFunc {
	return TenantWithConfig(DefaultTenantConfig())
}

// TenantWithConfig returns tenant middleware with custom configuration
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeBadRequest,
					"Missing "+TenantHeaderKey+" header",
					GetRequestID(c),
				))
				return
			}
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rejected malformed tenant header",
					zap.String("tenant_header", raw),
					zap.String("path", path))
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest,
				"Invalid "+TenantHeaderKey+" header",
				GetRequestID(c),
			))
			return
		}

		c.Set(TenantIDKey, tenantID)

		// Propagate to the request context so repositories and the
		// request-scoped logger see the same tenant.
		requestLogger := logger.FromContext(c.Request.Context())
		ctx, requestLogger := logger.WithTenantID(c.Request.Context(), requestLogger, tenantID.String())
		if userID, ok := extractUserID(c); ok {
			c.Set(UserIDKey, userID)
			ctx, _ = logger.WithUserID(ctx, requestLogger, userID.String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func extractUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(UserHeaderKey)
	if raw == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// GetTenantID returns the tenant ID set by the tenant middleware
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	tenantID, ok := v.(uuid.UUID)
	return tenantID, ok && tenantID != uuid.Nil
}

// GetUserID returns the acting user ID set by the tenant middleware
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
