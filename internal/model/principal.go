package model

import "github.com/google/uuid"

type Role string

const (
	RoleCitizen Role = "CITIZEN"
	RolePolice  Role = "POLICE"
	RoleInsurer Role = "INSURER"
)

type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsPolice() bool {
	return p.Role == RolePolice
}

func (p Principal) IsInsurer() bool {
	return p.Role == RoleInsurer
}
