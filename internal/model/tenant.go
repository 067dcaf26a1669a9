package model

import "time"

// Tenant is a registry row in the shared schema describing one business
// customer's schema. The schema itself holds the per-tenant tables.
type Tenant struct {
	SchemaName  string    `db:"schema_name" json:"schema_name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Active      bool      `db:"activo" json:"activo"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CreateTenantRequest struct {
	SchemaName  string `json:"schema_name" binding:"required,schema_name"`
	DisplayName string `json:"display_name" binding:"required"`
}
