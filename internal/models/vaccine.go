package models

// Vaccine is an entry of the vaccine catalog.
type Vaccine struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Manufacturer      string `json:"manufacturer"`
	RequiredDoses     int    `json:"required_doses"`
	IntervalDays      int    `json:"interval_days"`
	Route             string `json:"route"`
	Contraindications string `json:"contraindications"`
	Active            bool   `json:"active"`
}
