package models

import (
	"strings"
	"time"
	"unicode"
)

const (
	EmployeeStatusActive   = "ACTIVE"
	EmployeeStatusInactive = "INACTIVE"
	EmployeeStatusOnLeave  = "ON_LEAVE"
)

// Employee is a municipal employee eligible for vaccination. IDComp is the
// composite registration-bond identifier.
type Employee struct {
	IDComp          string     `json:"id_comp"`
	Registration    string     `json:"registration"`
	Bond            string     `json:"bond"`
	Name            string     `json:"name"`
	CPF             string     `json:"cpf"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	Sex             string     `json:"sex,omitempty"`
	JobTitle        string     `json:"job_title,omitempty"`
	Unit            string     `json:"unit,omitempty"`
	PhysicalUnit    string     `json:"physical_unit,omitempty"`
	Superintendence string     `json:"superintendence,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	HiredAt         *time.Time `json:"hired_at,omitempty"`
	BondType        string     `json:"bond_type,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CreatedBy       string     `json:"created_by,omitempty"`
}

// CompositeID builds the employee identifier from registration and bond.
func CompositeID(registration, bond string) string {
	registration = strings.TrimSpace(registration)
	bond = strings.TrimSpace(bond)
	if bond == "" {
		return registration
	}
	return registration + "-" + bond
}

// NormalizeCPF strips everything but digits.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF checks length and both check digits of a CPF.
func ValidCPF(cpf string) bool {
	digits := NormalizeCPF(cpf)
	if len(digits) != 11 {
		return false
	}

	allSame := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(digits[i]-'0') * (pos + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != int(digits[pos]-'0') {
			return false
		}
	}
	return true
}
