package middleware

import (
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// UserToken carries the claims labops reads from a Keycloak access token.
type UserToken struct {
	RealmAccess RealmAccess `json:"realm_access"`
	Roles       []UserRole  `json:"role"`
	Email       string      `json:"email"`
	ClientID    string      `json:"azp"`
	UserID      uuid.UUID   `json:"sub"`
	Scopes      string      `json:"scope"`
	jwt.RegisteredClaims
}

type RealmAccess struct {
	Roles []UserRole `json:"roles"`
}

// HasAnyRole checks realm roles and top-level token roles alike; service accounts only carry the latter.
func (t UserToken) HasAnyRole(roles ...UserRole) bool {
	for _, role := range roles {
		for _, granted := range t.RealmAccess.Roles {
			if granted == role {
				return true
			}
		}
		for _, granted := range t.Roles {
			if granted == role {
				return true
			}
		}
	}
	return false
}

// Caller identifies the requester in logs, the client id for service accounts without an email.
func (t UserToken) Caller() string {
	if t.Email != "" {
		return t.Email
	}
	return t.ClientID
}

type UserRole string

const (
	Admin       UserRole = "admin"
	LabOperator UserRole = "lab_operator"
	Accounting  UserRole = "accounting"
	Service     UserRole = "service"
)

var (
	LabRoles        = []UserRole{Admin, LabOperator}
	AutomationRoles = []UserRole{Admin, LabOperator, Service}
	AccountingRoles = []UserRole{Admin, Accounting}
)

func (s UserRole) ToString() string {
	return string(s)
}
