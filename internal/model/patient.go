package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Patient is a demographic record owned by exactly one tenant schema.
// Partition membership is structural (which schema the row lives in),
// so the model carries no tenant column.
type Patient struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"nombre" json:"nombre"`
	PaternalSurname *string         `db:"apellido_paterno" json:"apellido_paterno"`
	MaternalSurname *string         `db:"apellido_materno" json:"apellido_materno"`
	BirthDate       *time.Time      `db:"fecha_nacimiento" json:"fecha_nacimiento"`
	Phone           *string         `db:"telefono" json:"telefono"`
	Email           *string         `db:"email" json:"email"`
	Address         *string         `db:"direccion" json:"direccion"`
	Occupation      *string         `db:"ocupacion" json:"ocupacion"`
	Notes           *string         `db:"notas" json:"notas"`
	Active          bool            `db:"activo" json:"activo"`
	RegisteredAt    time.Time       `db:"fecha_creacion" json:"fecha_creacion"`
	Metadata        json.RawMessage `db:"metadata" json:"metadata,omitempty"`
}

type CreatePatientRequest struct {
	Name            string          `json:"nombre" binding:"required"`
	PaternalSurname *string         `json:"apellido_paterno"`
	MaternalSurname *string         `json:"apellido_materno"`
	BirthDate       *FlexTime       `json:"fecha_nacimiento"`
	Phone           *string         `json:"telefono"`
	Email           *string         `json:"email" binding:"omitempty,email"`
	Address         *string         `json:"direccion"`
	Occupation      *string         `json:"ocupacion"`
	Notes           *string         `json:"notas"`
	Metadata        json.RawMessage `json:"metadata"`
}

type UpdatePatientRequest struct {
	Name            *string         `json:"nombre"`
	PaternalSurname *string         `json:"apellido_paterno"`
	MaternalSurname *string         `json:"apellido_materno"`
	BirthDate       *FlexTime       `json:"fecha_nacimiento"`
	Phone           *string         `json:"telefono"`
	Email           *string         `json:"email" binding:"omitempty,email"`
	Address         *string         `json:"direccion"`
	Occupation      *string         `json:"ocupacion"`
	Notes           *string         `json:"notas"`
	Active          *bool           `json:"activo"`
	Metadata        json.RawMessage `json:"metadata"`
}

// PatientFilters narrows patient listings. Search matches name, paternal
// surname, phone and email, case-insensitively.
type PatientFilters struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}

// PatientPage is a paginated listing result.
type PatientPage struct {
	Items      []*Patient `json:"items"`
	TotalItems int        `json:"total_items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// DuplicateCriteria drives the duplicate-patient heuristic. A candidate
// matches on full name (maternal surname both-null counts as equal) or on
// exact phone when the trimmed phone is longer than five characters.
type DuplicateCriteria struct {
	Name            string
	PaternalSurname string
	MaternalSurname *string
	Phone           *string
	ExcludeID       *uuid.UUID
}
