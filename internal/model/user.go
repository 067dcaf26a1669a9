package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Roles. Root administers every tenant and may override the request
// schema; Admin manages users within their own schema.
const (
	RoleRoot     = "Root"
	RoleAdmin    = "Admin"
	RoleOperator = "Operator"
)

// User lives in the shared schema alongside the tenant registry; its
// SchemaName claim is embedded into issued tokens.
type User struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	FullName     string         `db:"nombre_completo" json:"nombre_completo"`
	PasswordHash string         `db:"password_hash" json:"-"`
	SchemaName   string         `db:"nombre_esquema" json:"nombre_esquema"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	Active       bool           `db:"activo" json:"activo"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type CreateUserRequest struct {
	Email      string   `json:"email" binding:"required,email"`
	FullName   string   `json:"nombre_completo" binding:"required"`
	Password   string   `json:"password" binding:"required,min=8"`
	SchemaName string   `json:"nombre_esquema"`
	Roles      []string `json:"roles"`
}

type UpdateUserRequest struct {
	FullName *string  `json:"nombre_completo"`
	Password *string  `json:"password" binding:"omitempty,min=8"`
	Roles    []string `json:"roles"`
	Active   *bool    `json:"activo"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}
