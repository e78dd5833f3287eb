package models

import (
	"encoding/json"
	"time"
)

// Audit modules
const (
	AuditModuleAuth        = "AUTH"
	AuditModuleAccounts    = "ACCOUNTS"
	AuditModuleEmployees   = "EMPLOYEES"
	AuditModuleCampaigns   = "CAMPAIGNS"
	AuditModuleVaccination = "VACCINATION"
	AuditModuleSystem      = "SYSTEM"
)

type AuditLog struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Login     string    `json:"login"`
	Module    string    `json:"module"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// AuditMetadata holds structured context rendered into AuditLog.Details.
type AuditMetadata map[string]interface{}

// String renders the metadata as JSON. An empty map renders as "".
func (am AuditMetadata) String() string {
	if len(am) == 0 {
		return ""
	}
	b, err := json.Marshal(map[string]interface{}(am))
	if err != nil {
		return ""
	}
	return string(b)
}
