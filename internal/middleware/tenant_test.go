package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/tenant"
)

// injectPrincipal stands in for authentication in these tests.
func injectPrincipal(p *model.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Request = c.Request.WithContext(model.WithPrincipal(c.Request.Context(), p))
		}
		c.Next()
	}
}

func tenantPipeline(p *model.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := tenant.NewResolver("public", zerolog.Nop())
	mw := NewTenantMiddleware(resolver, "public", "X-Tenant-Schema")

	r := gin.New()
	r.Use(mw.Bind(), injectPrincipal(p), mw.Resolve())
	r.GET("/schema", func(c *gin.Context) {
		c.String(http.StatusOK, tenant.Schema(c.Request.Context()))
	})
	return r
}

func doRequest(r *gin.Engine, override string) string {
	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	if override != "" {
		req.Header.Set("X-Tenant-Schema", override)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Body.String()
}

func TestTenantPipeline(t *testing.T) {
	root := &model.Principal{
		ID:         uuid.New(),
		Roles:      []string{model.RoleRoot},
		SchemaName: "root_home",
	}
	admin := &model.Principal{
		ID:         uuid.New(),
		Roles:      []string{model.RoleAdmin},
		SchemaName: "optica_norte",
	}
	noClaim := &model.Principal{
		ID:    uuid.New(),
		Roles: []string{model.RoleOperator},
	}

	tests := []struct {
		name      string
		principal *model.Principal
		override  string
		want      string
	}{
		{"anonymous uses default", nil, "", "public"},
		{"anonymous override ignored", nil, "optica_centro", "public"},
		{"root override honored", root, "optica_centro", "optica_centro"},
		{"root without override uses claim", root, "", "root_home"},
		{"admin override ignored", admin, "optica_centro", "optica_norte"},
		{"missing claim falls back to default", noClaim, "", "public"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doRequest(tenantPipeline(tt.principal), tt.override))
		})
	}
}
