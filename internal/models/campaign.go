package models

import "time"

const (
	CampaignStatusPlanned   = "PLANNED"
	CampaignStatusActive    = "ACTIVE"
	CampaignStatusFinished  = "FINISHED"
	CampaignStatusCancelled = "CANCELLED"
)

type Campaign struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Vaccine        string    `json:"vaccine"`
	TargetAudience string    `json:"target_audience,omitempty"`
	StartsOn       time.Time `json:"starts_on"`
	EndsOn         time.Time `json:"ends_on"`
	Status         string    `json:"status"`
	Description    string    `json:"description,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidCampaignStatus reports whether s is a known campaign status.
func ValidCampaignStatus(s string) bool {
	switch s {
	case CampaignStatusPlanned, CampaignStatusActive, CampaignStatusFinished, CampaignStatusCancelled:
		return true
	}
	return false
}
