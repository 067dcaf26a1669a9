package tenant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/optica/backend/internal/model"
)

func newTestResolver() *Resolver {
	return NewResolver("public", zerolog.Nop())
}

func principal(schema string, roles ...string) *model.Principal {
	return &model.Principal{
		ID:         uuid.New(),
		Email:      "staff@optica.test",
		Roles:      roles,
		SchemaName: schema,
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		principal *model.Principal
		override  string
		want      string
	}{
		{
			name:      "anonymous request uses default",
			principal: nil,
			override:  "optica_centro",
			want:      "public",
		},
		{
			name:      "root with override uses override",
			principal: principal("root_home", model.RoleRoot),
			override:  "optica_centro",
			want:      "optica_centro",
		},
		{
			name:      "root with blank override uses own claim",
			principal: principal("root_home", model.RoleRoot),
			override:  "   ",
			want:      "root_home",
		},
		{
			name:      "non-root override is ignored",
			principal: principal("optica_norte", model.RoleAdmin),
			override:  "optica_centro",
			want:      "optica_norte",
		},
		{
			name:      "operator uses own claim",
			principal: principal("optica_norte", model.RoleOperator),
			want:      "optica_norte",
		},
		{
			name:      "empty claim falls back to default",
			principal: principal("", model.RoleOperator),
			want:      "public",
		},
		{
			name:      "whitespace claim falls back to default",
			principal: principal("  ", model.RoleOperator),
			want:      "public",
		},
	}

	r := newTestResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.principal, tt.override))
		})
	}
}

func TestCaps(t *testing.T) {
	assert.Equal(t, Capabilities{}, Caps(nil))

	root := Caps(principal("s", model.RoleRoot))
	assert.True(t, root.IsRoot)
	assert.True(t, root.CanOverrideTenant)
	assert.True(t, root.CanManageUsers)

	admin := Caps(principal("s", model.RoleAdmin))
	assert.False(t, admin.IsRoot)
	assert.False(t, admin.CanOverrideTenant)
	assert.True(t, admin.CanManageUsers)

	operator := Caps(principal("s", model.RoleOperator))
	assert.False(t, operator.CanManageUsers)
}

func TestTargetSchema(t *testing.T) {
	r := newTestResolver()

	root := Caps(principal("root_home", model.RoleRoot))
	assert.Equal(t, "optica_centro", r.TargetSchema(root, "optica_centro", "root_home"))
	assert.Equal(t, "public", r.TargetSchema(root, "  ", "root_home"))

	admin := Caps(principal("optica_norte", model.RoleAdmin))
	assert.Equal(t, "optica_norte", r.TargetSchema(admin, "optica_centro", "optica_norte"))
}
