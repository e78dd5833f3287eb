package models

import (
	"strings"
	"time"
)

const (
	DoseKindCampaign = "CAMPAIGN"
	DoseKindRoutine  = "ROUTINE"
)

// Defaults applied when a dose is registered without these details.
const (
	DefaultSite     = "NASST Central"
	DefaultRoute    = "Intramuscular"
	NotInformed     = "NÃO INFORMADO"
	DefaultDoseName = "1ª Dose"
)

// Dose is one vaccine application.
type Dose struct {
	ID           int64      `json:"id"`
	IDComp       string     `json:"id_comp"`
	EmployeeName string     `json:"employee_name,omitempty"`
	Vaccine      string     `json:"vaccine"`
	Kind         string     `json:"kind"`
	Dose         string     `json:"dose"`
	AppliedOn    time.Time  `json:"applied_on"`
	ReturnOn     *time.Time `json:"return_on,omitempty"`
	Lot          string     `json:"lot"`
	Manufacturer string     `json:"manufacturer"`
	Site         string     `json:"site"`
	Route        string     `json:"route"`
	CampaignID   *int64     `json:"campaign_id,omitempty"`
	CampaignName string     `json:"campaign_name,omitempty"`
	RecordedBy   string     `json:"recorded_by"`
	RecordedAt   time.Time  `json:"recorded_at"`
}

// ReturnDate computes when the next application is due: one year for
// influenza, 21 days for COVID and 30 days otherwise.
func ReturnDate(vaccine string, appliedOn time.Time) time.Time {
	name := strings.ToLower(vaccine)
	switch {
	case strings.Contains(name, "influenza"):
		return appliedOn.AddDate(1, 0, 0)
	case strings.Contains(name, "covid"):
		return appliedOn.AddDate(0, 0, 21)
	default:
		return appliedOn.AddDate(0, 0, 30)
	}
}
