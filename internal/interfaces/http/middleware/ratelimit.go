package middleware

import (
	"net/http"

	"github.com/crm/backend/internal/domain/verification"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit limits requests per tenant (falling back to client IP) using
// the shared limiter. Limiter failures let the request through.
func RateLimit(limiter verification.RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitByKey(limiter, logger, func(c *gin.Context) string {
		if tenantID, ok := GetTenantID(c); ok {
			return "tenant:" + tenantID.String()
		}
		return "ip:" + c.ClientIP()
	})
}

// RateLimitByKey limits requests with a custom key extractor
func RateLimitByKey(limiter verification.RateLimiter, logger *zap.Logger, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			if logger != nil {
				logger.Warn("rate limiter unavailable, allowing request",
					zap.String("key", key),
					zap.Error(err))
			}
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}

		c.Next()
	}
}
