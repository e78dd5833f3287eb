package models

import "time"

// Account is an operator of the system. Accounts are deactivated, never deleted.
type Account struct {
	Login             string     `json:"login"`
	PasswordHash      string     `json:"-"`
	Name              string     `json:"name"`
	Tier              Tier       `json:"tier"`
	AllowedUnit       string     `json:"allowed_unit"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
}

// Principal is the identity returned by a successful authentication.
type Principal struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Tier        Tier   `json:"tier"`
	AllowedUnit string `json:"allowed_unit"`
}

// AllUnits is the AllowedUnit value granting access to every unit.
const AllUnits = "ALL"
