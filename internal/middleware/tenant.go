package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/tenant"
)

type TenantMiddleware struct {
	resolver       *tenant.Resolver
	defaultSchema  string
	overrideHeader string
}

func NewTenantMiddleware(resolver *tenant.Resolver, defaultSchema, overrideHeader string) *TenantMiddleware {
	if overrideHeader == "" {
		overrideHeader = "X-Tenant-Schema"
	}
	return &TenantMiddleware{
		resolver:       resolver,
		defaultSchema:  defaultSchema,
		overrideHeader: overrideHeader,
	}
}

// Bind installs a fresh tenant binding before anything else runs.
// Unauthenticated routes proceed on the default schema.
func (m *TenantMiddleware) Bind() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(tenant.Bind(c.Request.Context(), m.defaultSchema))
		c.Next()
	}
}

// Resolve runs after authentication and commits the binding exactly
// once: the override header for Root, otherwise the principal's schema
// claim, otherwise the default.
func (m *TenantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if binding, ok := tenant.FromContext(ctx); ok {
			principal := model.PrincipalFromContext(ctx)
			schema := m.resolver.Resolve(principal, c.GetHeader(m.overrideHeader))
			binding.Resolve(schema)
		}
		c.Next()
	}
}
