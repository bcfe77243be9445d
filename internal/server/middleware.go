package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditdomain "github.com/perkly/perkly/internal/audit/domain"
	auditcontext "github.com/perkly/perkly/internal/auditcontext"
	identitydomain "github.com/perkly/perkly/internal/identity/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"go.uber.org/zap"
)

const contextIdentityKey = "identity"

// RequestContext stamps every request with an id and the client details the
// audit trail records.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := c.Request.Context()
		ctx = auditcontext.WithRequestID(ctx, requestID)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	l := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if requestID := auditcontext.RequestIDFromContext(c.Request.Context()); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", fields...)
		case c.Writer.Status() >= 400:
			l.Warn("request", fields...)
		default:
			l.Info("request", fields...)
		}
	}
}

// BearerRequired authenticates requests with an API token. Tenant identity is
// derived solely from the token; nothing in the request body or query can
// widen it.
func (s *Server) BearerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.identitySvc.Resolve(c.Request.Context(), bearer)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		ctx = tenantctx.WithTenantID(ctx, int64(identity.TenantID))
		ctx = tenantctx.WithRole(ctx, identity.Role)
		ctx = auditcontext.WithActor(ctx, string(auditdomain.ActorTypeToken), identity.TokenID.String())

		c.Set(contextIdentityKey, identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TenantFromBearerOrQuery scopes public reads. A bearer token wins when
// present; otherwise the tenant_id query parameter selects the storefront.
func (s *Server) TenantFromBearerOrQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearer, ok := bearerToken(c); ok {
			identity, err := s.identitySvc.Resolve(c.Request.Context(), bearer)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}

			ctx := tenantctx.WithTenantID(c.Request.Context(), int64(identity.TenantID))
			ctx = tenantctx.WithRole(ctx, identity.Role)
			c.Set(contextIdentityKey, identity)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		tenantID, err := parseSnowflakeID(c.Query("tenant_id"))
		if err != nil {
			AbortWithError(c, newValidationError("tenant_id", "invalid_tenant", "invalid tenant_id"))
			return
		}

		c.Request = c.Request.WithContext(tenantctx.WithTenantID(c.Request.Context(), int64(tenantID)))
		c.Next()
	}
}

// RequireAuthorization gates a route on the caller role.
func (s *Server) RequireAuthorization(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := tenantctx.RoleFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func identityFromGin(c *gin.Context) (identitydomain.Identity, bool) {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return identitydomain.Identity{}, false
	}
	identity, ok := value.(identitydomain.Identity)
	return identity, ok
}
