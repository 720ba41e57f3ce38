package models

import "time"

// UserRole values mirror the role metadata stored at the identity platform.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleAccountant UserRole = "accountant"
	RoleStaff      UserRole = "staff"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleStaff:
		return true
	}
	return false
}

// Tenant is a named organizational partition scoping data visibility.
// TenantPersonal is the sentinel for individual, non-organizational ledgers.
type Tenant string

const (
	TenantTataNursing     Tenant = "TATANursing"
	TenantDearcare        Tenant = "Dearcare"
	TenantDearcareAcademy Tenant = "DearcareAcademy"
	TenantPersonal        Tenant = "Personal"
)

func (t Tenant) Valid() bool {
	switch t {
	case TenantTataNursing, TenantDearcare, TenantDearcareAcademy, TenantPersonal:
		return true
	}
	return false
}

// Identity is the caller resolved by the auth middleware. It is never
// persisted locally; the identity platform owns the record.
type Identity struct {
	ID        string    `json:"id" example:"7f1c9f0a-2f8e-4a3b-9b6d-0c5a1f2e3d4c"`
	Email     string    `json:"email" example:"user@example.com"`
	Role      UserRole  `json:"role" example:"accountant"`
	Tenant    Tenant    `json:"tenant,omitempty" example:"Dearcare"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
